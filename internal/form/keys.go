package form

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the idea form.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Less   key.Binding // Attempts field: decrease
	More   key.Binding // Attempts field: increase
	Submit key.Binding
	Quit   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Less: key.NewBinding(
		key.WithKeys("left", "h", "-"),
		key.WithHelp("←", "fewer attempts"),
	),
	More: key.NewBinding(
		key.WithKeys("right", "l", "+"),
		key.WithHelp("→", "more attempts"),
	),
	Submit: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "generate"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}
