package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextField key.Binding
	PrevField key.Binding
	Enter     key.Binding
	Execute   key.Binding
	Stop      key.Binding
	Escape    key.Binding
	CtrlC     key.Binding
}

var keys = keyMap{
	NextField: key.NewBinding(
		key.WithKeys("tab", "down"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
	),
	Execute: key.NewBinding(
		key.WithKeys("ctrl+e"),
	),
	Stop: key.NewBinding(
		key.WithKeys("ctrl+k"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}
