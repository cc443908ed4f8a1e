package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Reset     key.Binding
	ResetTier key.Binding
	Tier      key.Binding
	Skip      key.Binding
	Prev      key.Binding
	Next      key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Reset:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "restart run")),
		ResetTier: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "reset tier record")),
		Tier:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "next tier")),
		Skip:      key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "skip paragraph")),
		Prev:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "previous paragraph")),
		Next:      key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "next paragraph")),
		Help:      key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "more keys")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reset, k.Tier, k.Skip, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Reset, k.ResetTier, k.Tier},
		{k.Skip, k.Prev, k.Next},
		{k.Help, k.Quit},
	}
}
