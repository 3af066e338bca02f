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

	// Help toggle
	Help key.Binding

	// Command palette
	Command key.Binding

	// Manual refresh
	Refresh key.Binding

	// Category filters
	FilterAll         key.Binding
	FilterSystem      key.Binding
	FilterEvent       key.Binding
	FilterOpportunity key.Binding
	FilterMember      key.Binding

	// Notification actions
	MarkRead      key.Binding
	MarkAllRead   key.Binding
	Delete        key.Binding
	DeleteAllRead key.Binding
	OpenAction    key.Binding

	// Panels
	Settings key.Binding
	SendTest key.Binding

	// Toast dismissal
	DismissToast key.Binding
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
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all categories"),
		),
		FilterSystem: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "system"),
		),
		FilterEvent: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "events"),
		),
		FilterOpportunity: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "opportunities"),
		),
		FilterMember: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "members"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		DeleteAllRead: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "delete read"),
		),
		OpenAction: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open action link"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		SendTest: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test notification"),
		),
		DismissToast: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dismiss toast"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.MarkRead,
		k.Refresh, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.FilterAll, k.FilterSystem, k.FilterEvent, k.FilterOpportunity, k.FilterMember},
		{k.MarkRead, k.MarkAllRead, k.Delete, k.DeleteAllRead, k.OpenAction},
		{k.Refresh, k.Settings, k.SendTest, k.DismissToast, k.Help},
	}
}
