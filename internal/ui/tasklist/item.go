package tasklist

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering. The view's
// own search pipeline is used instead of the list's filter, so this is
// informational only.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// ItemDelegate implements list.ItemDelegate for rendering task rows.
// DueSoonThresholdDays controls when a due date turns orange; it is
// the same window the due-soon notifications use.
type ItemDelegate struct {
	DueSoonThresholdDays int
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages. Nothing reacts per item.
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row: id, star, title, status, due date.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task

	star := " "
	if t.IsStarred {
		star = "★"
	}

	due := "—"
	var dueStyled string
	if !t.DueDate.IsZero() {
		due = t.DueDate.Format("02/01")
		daysLeft := int(math.Ceil(time.Until(t.DueDate).Hours() / 24))
		dueStyled = theme.DueStyle(daysLeft, d.DueSoonThresholdDays).Render(due)
	} else {
		dueStyled = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(due)
	}

	status := theme.StatusStyle(t.Status).Render(notify.StatusLabel(t.Status))

	title := t.Title
	if t.ProjectName != "" {
		title = fmt.Sprintf("[%s] %s", t.ProjectName, title)
	}

	line := fmt.Sprintf("%s %s %-40s %s %s", t.ID, star, truncate(title, 40), status, dueStyled)

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
