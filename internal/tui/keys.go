package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next        key.Binding
	Prev        key.Binding
	Toggle      key.Binding
	AddTask     key.Binding
	AddStrategy key.Binding
	RemoveRow   key.Binding
	RemoveTask  key.Binding
	FormView    key.Binding
	RawView     key.Binding
	Reload      key.Binding
	Save        key.Binding
	Preview     key.Binding
	Run         key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Preview, k.Run, k.FormView, k.RawView, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Toggle},
		{k.AddTask, k.AddStrategy, k.RemoveRow, k.RemoveTask},
		{k.FormView, k.RawView, k.Reload, k.Save},
		{k.Preview, k.Run, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Next:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	Prev:        key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle/cycle")),
	AddTask:     key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "add task")),
	AddStrategy: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "add strategy")),
	RemoveRow:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "remove strategy")),
	RemoveTask:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remove task")),
	FormView:    key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "form")),
	RawView:     key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "raw yaml")),
	Reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Preview:     key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "preview")),
	Run:         key.NewBinding(key.WithKeys("f6"), key.WithHelp("f6", "run")),
	Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}
