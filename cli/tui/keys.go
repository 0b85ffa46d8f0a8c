package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines key bindings. Printable keys belong to the search field,
// so none of these use letters.
type keyMap struct {
	Quit   key.Binding
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "choose"),
	),
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Quit}
}
