package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play    key.Binding
	Loop    key.Binding
	Reset   key.Binding
	Goals   key.Binding
	IDs     key.Binding
	Forward key.Binding
	Back    key.Binding
	Next    key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Shot    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Play:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play/pause")),
	Loop:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "loop")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Goals:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "goals")),
	IDs:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "agent ids")),
	Forward: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "step")),
	Back:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "step back")),
	Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next switch")),
	Faster:  key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "faster")),
	Slower:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "slower")),
	Shot:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "snapshot")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Forward, k.Back, k.Reset, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Loop, k.Reset, k.Next},
		{k.Forward, k.Back, k.Faster, k.Slower},
		{k.Goals, k.IDs, k.Shot, k.Quit},
	}
}
