package mcp

import (
	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	OpenOnly bool `json:"open_only,omitempty" jsonschema:"When true, only windows that are currently open are returned"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Version   uint64             `json:"version"`
	Focused   string             `json:"focused,omitempty"`
	Windows   []desk.WindowState `json:"windows"`
	Launchers []launcher.Info    `json:"launchers"`
}

// WindowInput names a window for open_window, close_window and focus_window.
type WindowInput struct {
	ID string `json:"id" jsonschema:"required,Window id as listed by list_windows (e.g. bio, projects, vlc-player)"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	ID string `json:"id" jsonschema:"required,Window id as listed by list_windows"`
	X  int    `json:"x" jsonschema:"required,Column of the window's top-left corner"`
	Y  int    `json:"y" jsonschema:"required,Row of the window's top-left corner"`
}

// WindowOutput reports the target window after a change. Window is nil
// when the id is unknown to the desktop; close, focus and move leave the
// desktop untouched in that case.
type WindowOutput struct {
	Window  *desk.WindowState `json:"window,omitempty"`
	Focused string            `json:"focused,omitempty"`
	Changed bool              `json:"changed"`
}
