package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Optimize key.Binding
	Copy     key.Binding
	Save     key.Binding
	Theme    key.Binding
	Sample1  key.Binding
	Sample2  key.Binding
	Sample3  key.Binding
	Focus    key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Optimize: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "optimize")),
		Copy:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Theme:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Sample1:  key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1-f3", "samples")),
		Sample2:  key.NewBinding(key.WithKeys("f2")),
		Sample3:  key.NewBinding(key.WithKeys("f3")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Optimize, k.Copy, k.Save, k.Theme, k.Sample1, k.Focus, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
