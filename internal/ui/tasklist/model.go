package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/keys"
	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/theme"
	"github.com/prdesk/prdesk/internal/view"
)

// SelectedTaskMsg is sent when a user selects a task.
type SelectedTaskMsg struct {
	TaskID string
}

// statusCycle is the order the status filter steps through; nil means
// "all statuses".
var statusCycle = []*string{
	nil,
	ptr(model.StatusNotStarted),
	ptr(model.StatusInProgress),
	ptr(model.StatusCompleted),
	ptr(model.StatusCancelled),
}

// sortCycle is the order Tab steps through sort keys.
var sortCycle = []view.SortKey{
	view.SortNewest,
	view.SortOldest,
	view.SortDueDate,
	view.SortID,
}

func ptr(s string) *string { return &s }

// Model is the task dashboard view. It holds the raw snapshot and
// derives the visible rows through the pure filter/sort pipeline on
// every criteria change, without any queries or I/O.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tasks       []model.Task
	criteria    view.Criteria
	statusIndex int
	sortIndex   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model. dueSoonDays is the due-soon
// window used for due-date highlighting; values below one fall back
// to the notification default.
func New(k *keys.KeyMap, width, height, dueSoonDays int) Model {
	if dueSoonDays <= 0 {
		dueSoonDays = notify.DefaultDueSoonThresholdDays
	}
	l := list.New([]list.Item{}, ItemDelegate{DueSoonThresholdDays: dueSoonDays}, width, height-2)
	l.Title = "งานทั้งหมด"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "ค้นหางาน..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetTasks replaces the raw snapshot and reapplies the pipeline.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	m.tasks = tasks
	return m.refresh()
}

// Tasks returns the raw snapshot currently backing the view.
func (m Model) Tasks() []model.Task {
	return m.tasks
}

// Selected returns the task under the cursor, or nil.
func (m Model) Selected() *model.Task {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return nil
	}
	t := item.Task
	return &t
}

// refresh runs the filter/sort pipeline and reloads the list rows.
func (m *Model) refresh() tea.Cmd {
	visible := view.Apply(m.tasks, m.criteria, sortCycle[m.sortIndex])
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	m.list.Title = m.titleLine(len(visible))
	return m.list.SetItems(items)
}

// titleLine summarizes the active criteria in the list header.
func (m Model) titleLine(count int) string {
	title := fmt.Sprintf("งานทั้งหมด (%d)", count)
	if s := statusCycle[m.statusIndex]; s != nil {
		title += " · " + notify.StatusLabel(*s)
	}
	if m.criteria.StarredOnly {
		title += " · ★"
	}
	if m.criteria.SearchText != "" {
		title += fmt.Sprintf(" · \"%s\"", m.criteria.SearchText)
	}
	return title
}

// Init returns nil; the app supplies snapshots via SetTasks.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}
		return m.handleNormalKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.criteria.SearchText = m.searchInput.Value()
		return m, m.refresh()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.criteria.SearchText = ""
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: item.Task.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterStatus):
		m.statusIndex = (m.statusIndex + 1) % len(statusCycle)
		m.criteria.Status = statusCycle[m.statusIndex]
		return m, m.refresh()

	case key.Matches(msg, m.keys.FilterStarred):
		m.criteria.StarredOnly = !m.criteria.StarredOnly
		return m, m.refresh()

	case key.Matches(msg, m.keys.CycleSort):
		m.sortIndex = (m.sortIndex + 1) % len(sortCycle)
		return m, m.refresh()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks match.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.criteria.Status != nil || m.criteria.StarredOnly || m.criteria.SearchText != "" {
		return style.Render("ไม่พบงานที่ตรงกับเงื่อนไข")
	}
	return style.Render("ยังไม่มีงานเข้ามา\nกด a เพื่อสร้างคำของาน")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
