package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Section   key.Binding
	Search    key.Binding
	Clear     key.Binding
	PrevTag   key.Binding
	NextTag   key.Binding
	Group     key.Binding
	Toggle    key.Binding
	Sort      key.Binding
	View      key.Binding
	Quick     key.Binding
	Down      key.Binding
	Up        key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Open      key.Binding
	Back      key.Binding
	Bookmark  key.Binding
	Preview   key.Binding
	Export    key.Binding
	Theme     key.Binding
	Reset     key.Binding
	Debug     key.Binding
	Left      key.Binding
	Right     key.Binding
	PrevField key.Binding
	Ask       key.Binding
	ClearChat key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Section:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "section")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear search")),
	PrevTag:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev tag")),
	NextTag:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next tag")),
	Group:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tag group")),
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle tag")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	View:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view")),
	Quick:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "move")),
	Up:        key.NewBinding(key.WithKeys("k", "up")),
	Top:       key.NewBinding(key.WithKeys("g", "home")),
	Bottom:    key.NewBinding(key.WithKeys("G", "end")),
	Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Bookmark:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark")),
	Preview:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pdf")),
	Export:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Debug:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Left:      key.NewBinding(key.WithKeys("h", "left")),
	Right:     key.NewBinding(key.WithKeys("l", "right")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab")),
	Ask:       key.NewBinding(key.WithKeys("i", "/", "enter"), key.WithHelp("i", "ask")),
	ClearChat: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear chat")),
}
