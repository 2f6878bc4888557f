package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up    key.Binding
	down  key.Binding
	enter key.Binding
	back  key.Binding
	space key.Binding
	add   key.Binding
	del   key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		space: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		add:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new binding")),
		del:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.back, k.space},
		{k.add, k.del, k.quit},
	}
}
