// Package keymap defines keybindings for the TUI.
package keymap

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding

	Send    key.Binding
	Recall  key.Binding
	Scroll  key.Binding
	Sources key.Binding
	Stop    key.Binding
	Clear   key.Binding

	Help key.Binding
	Quit key.Binding
}

// Group is a titled set of bindings shown together in the help view.
type Group struct {
	Title    string
	Bindings []key.Binding
}

func binding(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up:     binding("↑/k", "up", "up", "k"),
		Down:   binding("↓/j", "down", "down", "j"),
		Select: binding("enter", "select", "enter"),
		Back:   binding("esc", "back", "esc"),

		Send:    binding("enter", "send", "enter"),
		Recall:  binding("↑/↓", "recall earlier questions", "up", "down"),
		Scroll:  binding("pgup/pgdn", "scroll the transcript", "pgup", "pgdown"),
		Sources: binding("tab", "sources", "tab"),
		Stop:    binding("ctrl+x", "stop answer", "ctrl+x"),
		Clear:   binding("ctrl+l", "new chat", "ctrl+l"),

		Help: binding("?", "help", "?"),
		Quit: binding("q", "quit", "q", "ctrl+c"),
	}
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ChatHelp is the footer shown under the chat transcript.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.Sources, k.Stop, k.Clear, k.Back}
}

// Groups returns the bindings by section for the help view.
func (k *KeyMap) Groups() []Group {
	return []Group{
		{Title: "Navigation", Bindings: []key.Binding{k.Up, k.Down, k.Select, k.Back}},
		{Title: "Chat", Bindings: []key.Binding{k.Send, k.Recall, k.Scroll, k.Sources, k.Stop, k.Clear}},
		{Title: "General", Bindings: []key.Binding{k.Help, k.Quit}},
	}
}

// FullHelp implements help.KeyMap.
func (k *KeyMap) FullHelp() [][]key.Binding {
	groups := k.Groups()
	out := make([][]key.Binding, len(groups))
	for i, g := range groups {
		out[i] = g.Bindings
	}
	return out
}
