package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Views
	Notifications key.Binding
	NewRequest    key.Binding
	Help          key.Binding

	// Task actions
	ToggleStar  key.Binding
	CycleStatus key.Binding
	DeleteTask  key.Binding

	// Filters / sort
	FilterStatus  key.Binding
	FilterStarred key.Binding
	CycleSort     key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	ClearAll    key.Binding

	// Preferences
	ToggleSound key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		NewRequest: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "new request"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ToggleStar: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "star"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "advance status"),
		),
		DeleteTask: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete task"),
		),
		FilterStatus: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter status"),
		),
		FilterStarred: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "starred only"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle sort"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "mark all read"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		ToggleSound: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle sound"),
		),
	}
}
