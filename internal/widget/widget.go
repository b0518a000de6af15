// Package widget holds the content shown inside desktop windows.
//
// Widgets are bubbletea components living in one window each. The desktop
// forwards every non-input message to every widget, so each widget tags its
// async messages with a per-instance token and ignores the rest. Reopening a
// window replaces its widget, and the replacement must not pick up messages
// its predecessor still had in flight.
package widget

import (
	"fmt"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var lastToken atomic.Uint64

// nextToken returns a value unique to one widget instance. Zero is never
// issued.
func nextToken() uint64 { return lastToken.Add(1) }

// Widget is the content of one window.
type Widget interface {
	// WindowID names the window the widget renders in.
	WindowID() string
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	// View renders the widget for a body of width x height cells. Output
	// taller than height is scrolled by the frame.
	View(width, height int) string
}

// Closer is implemented by widgets that hold resources which must be released
// when their window closes.
type Closer interface {
	Close() error
}

// Clicker is implemented by widgets with clickable controls. x and y are
// relative to the top-left cell of the widget's content, width is the
// content width.
type Clicker interface {
	Click(x, y, width int) tea.Cmd
}

var (
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("18"))
	linkStyle  = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("26"))
)

// wrap soft-wraps s to width cells.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Wrap(s, width, "")
}

// hyperlink renders label as an OSC 8 link to url.
func hyperlink(label, url string) string {
	return ansi.SetHyperlink(url) + linkStyle.Render(label) + ansi.ResetHyperlink()
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

// formatClock renders d as m:ss.
func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
