// Package notifpanel renders the notification list and exposes the
// read/clear actions. All mutation is expressed as an edited copy of the
// current list handed back to the app for a replace-semantics persist.
package notifpanel

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/keys"
	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/store"
	"github.com/prdesk/prdesk/internal/theme"
)

// ReplaceMsg asks the app to persist the edited notification list via
// the store's ReplaceAll.
type ReplaceMsg struct {
	Notifications []model.Notification
}

// notifItem wraps a notification for the bubbles list.
type notifItem struct {
	n model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i notifItem) FilterValue() string { return i.n.Message }

// itemDelegate renders notification rows.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(notifItem)
	if !ok {
		return
	}
	n := ni.n

	marker := " "
	if !n.IsRead {
		marker = "●"
	}
	line := fmt.Sprintf("%s %s  %s",
		marker,
		n.Timestamp.Format("02/01 15:04"),
		n.Message,
	)

	style := theme.ListItemStyle
	if !n.IsRead {
		style = style.Inherit(theme.UnreadStyle)
	}
	if index == m.Index() {
		style = theme.SelectedItemStyle
	}
	fmt.Fprint(w, style.Render(line))
}

// Model is the notification panel view.
type Model struct {
	list          list.Model
	keys          *keys.KeyMap
	notifications []model.Notification
	width         int
	height        int
}

// New creates a new notification panel.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, itemDelegate{}, width, height-2)
	l.Title = "การแจ้งเตือน"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the rendered list.
func (m *Model) SetNotifications(ns []model.Notification) tea.Cmd {
	m.notifications = ns
	items := make([]list.Item, len(ns))
	unread := 0
	for i, n := range ns {
		items[i] = notifItem{n: n}
		if !n.IsRead {
			unread++
		}
	}
	m.list.Title = fmt.Sprintf("การแจ้งเตือน (%d ยังไม่อ่าน)", unread)
	return m.list.SetItems(items)
}

// Init returns nil; the app supplies snapshots via SetNotifications.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key input for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(keyMsg, m.keys.MarkRead):
		item, ok := m.list.SelectedItem().(notifItem)
		if !ok {
			return m, nil
		}
		edited := store.MarkRead(m.notifications, item.n.TaskID)
		return m, replaceCmd(edited)

	case key.Matches(keyMsg, m.keys.MarkAllRead):
		return m, replaceCmd(store.MarkAllRead(m.notifications))

	case key.Matches(keyMsg, m.keys.ClearAll):
		return m, replaceCmd([]model.Notification{})

	case key.Matches(keyMsg, m.keys.DeleteTask):
		item, ok := m.list.SelectedItem().(notifItem)
		if !ok {
			return m, nil
		}
		edited := make([]model.Notification, 0, len(m.notifications))
		for _, n := range m.notifications {
			if n.ID != item.n.ID {
				edited = append(edited, n)
			}
		}
		return m, replaceCmd(edited)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// replaceCmd emits a ReplaceMsg with the edited list.
func replaceCmd(ns []model.Notification) tea.Cmd {
	return func() tea.Msg {
		return ReplaceMsg{Notifications: ns}
	}
}

// View renders the panel.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("ไม่มีการแจ้งเตือน")
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
