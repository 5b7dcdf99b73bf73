package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/keys"
	"github.com/prdesk/prdesk/internal/theme"
)

// Model renders the keybinding reference view.
type Model struct {
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates the help view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// Init returns nil.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update is inert; the app routes the back key.
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the grouped keybinding list.
func (m Model) View() string {
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back, m.keys.Quit}},
		{"Tasks", []key.Binding{m.keys.NewRequest, m.keys.ToggleStar, m.keys.CycleStatus, m.keys.DeleteTask}},
		{"Filters", []key.Binding{m.keys.Search, m.keys.FilterStatus, m.keys.FilterStarred, m.keys.CycleSort}},
		{"Notifications", []key.Binding{m.keys.Notifications, m.keys.MarkRead, m.keys.MarkAllRead, m.keys.ClearAll, m.keys.ToggleSound}},
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, section := range sections {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, binding := range section.bindings {
			h := binding.Help()
			b.WriteString("  ")
			b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(10).Render(h.Key))
			b.WriteString(theme.HelpStyle.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
