package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the desktop-level bindings. Keys not bound here go to the
// focused window's widget.
type KeyMap struct {
	Quit        key.Binding
	QuitIdle    key.Binding // Only when no window is focused
	CloseWindow key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		QuitIdle:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		CloseWindow: key.NewBinding(key.WithKeys("ctrl+w", "esc"), key.WithHelp("esc", "close window")),
		ScrollUp:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "scroll up")),
		ScrollDown:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "scroll down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
	}
}
