package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the palette's bindings. Letters are left to the query input.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	ClearRecent key.Binding
	Quit        key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n", "tab"),
		key.WithHelp("↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	ClearRecent: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear recent"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("esc", "close"),
	),
}
