package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings of the console.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	ToggleLogs key.Binding
	Reconnect  key.Binding

	// Modes
	Edit        key.Binding
	AutoSegment key.Binding
	Leave       key.Binding

	// Editing
	Save    key.Binding
	Undo    key.Binding
	Refresh key.Binding

	// Map cursor
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	FastUp      key.Binding
	FastDown    key.Binding
	FastLeft    key.Binding
	FastRight   key.Binding
	Click       key.Binding
	ContextMenu key.Binding
	Center      key.Binding

	// Overlays
	Confirm       key.Binding
	Cancel        key.Binding
	NewCrossroad  key.Binding
	NewDest       key.Binding
	NextField     key.Binding
	PreviousField key.Binding
	Submit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Leave mode / quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Toggle session log"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reconnect"),
		),

		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Draw a segment"),
		),
		AutoSegment: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Auto segment"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Leave mode"),
		),

		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save segment"),
		),
		Undo: key.NewBinding(
			key.WithKeys("backspace", "u"),
			key.WithHelp("u/bksp", "Remove last point"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload network"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Cursor north"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Cursor south"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Cursor west"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Cursor east"),
		),
		FastUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "Cursor north (fast)"),
		),
		FastDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "Cursor south (fast)"),
		),
		FastLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "Cursor west (fast)"),
		),
		FastRight: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("shift+right", "Cursor east (fast)"),
		),
		Click: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "Click at cursor"),
		),
		ContextMenu: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Context menu"),
		),
		Center: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Center on network"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Discard and leave"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "Keep editing"),
		),
		NewCrossroad: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "New crossroad"),
		),
		NewDest: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "New destination"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PreviousField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Save"),
		),
	}
}

// ShortHelp returns key bindings for the command bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.AutoSegment, k.Click, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.AutoSegment, k.Leave, k.Quit},
		{k.Up, k.Down, k.Left, k.Right, k.Center},
		{k.Click, k.ContextMenu, k.Save, k.Undo, k.Refresh},
		{k.CycleTheme, k.ToggleLogs, k.Reconnect, k.Help},
	}
}
