package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	Escape      key.Binding
	Diagnostics key.Binding

	// Tail
	LoadOlder    key.Binding
	SnapToLive   key.Binding
	Pause        key.Binding
	Filter       key.Binding
	ClearFilter  key.Binding
	ToggleDetail key.Binding
	DismissToast key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Diagnostics
	CycleLevel key.Binding

	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Diagnostics log"),
		),

		LoadOlder: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Load older"),
		),
		SnapToLive: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Snap to live"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Pause feed"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Edit filter"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "Clear filter"),
		),
		ToggleDetail: key.NewBinding(
			key.WithKeys("enter", "tab"),
			key.WithHelp("enter", "Toggle detail"),
		),
		DismissToast: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss toast"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Previous entry"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Next entry"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		CycleLevel: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle minimum level"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Apply"),
		),
	}
}

// FullHelp groups bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.SnapToLive, k.HalfPageUp, k.HalfPageDown, k.PageUp, k.PageDown},
		{k.LoadOlder, k.Pause, k.Filter, k.ClearFilter, k.ToggleDetail, k.DismissToast},
		{k.Diagnostics, k.CycleLevel},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
