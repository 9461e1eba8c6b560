package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the main view
type KeyMap struct {
	Root        key.Binding
	Add         key.Binding
	Parent      key.Binding
	Select      key.Binding
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	ToParent    key.Binding
	Copy        key.Binding
	Reset       key.Binding
	Scripts     key.Binding
	SaveScript  key.Binding
	Export      key.Binding
	Help        key.Binding
	Quit        key.Binding
	ScrollInfo  key.Binding
	ClearSelect key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Root:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "add root")),
		Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
		Parent:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "choose parent")),
		Select:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select node")),
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		ToParent:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "go to parent")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy node id")),
		Reset:       key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "reset tree")),
		Scripts:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "replay script")),
		SaveScript:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save as script")),
		Export:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		ScrollInfo:  key.NewBinding(key.WithKeys("J", "K"), key.WithHelp("J/K", "scroll info")),
		ClearSelect: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
	}
}

// helpRows lists bindings in the order shown by the help overlay
func (k KeyMap) helpRows() []key.Binding {
	return []key.Binding{
		k.Root, k.Add, k.Parent, k.Select, k.ClearSelect,
		k.Up, k.Down, k.Top, k.Bottom, k.ToParent, k.ScrollInfo,
		k.Copy, k.Reset, k.Scripts, k.SaveScript, k.Export,
		k.Help, k.Quit,
	}
}
