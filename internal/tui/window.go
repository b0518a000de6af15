package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/frame"
	"github.com/1broseidon/termdesk/internal/widget"
)

var (
	titleFocusedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62"))

	titleBlurredStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("240"))

	closeButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("250"))

	bodyStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, true, true).
			BorderForeground(lipgloss.Color("240"))
)

// window is the shell-side state of one open window: its frame, the widget
// it shows and the viewport that scrolls the widget.
type window struct {
	frame   *frame.Frame
	content widget.Widget
	vp      viewport.Model
	title   string
	icon    string
}

func newWindow(id string, ctl frame.Controller) *window {
	return &window{frame: frame.New(id, ctl)}
}

// bodySize is the viewport size for a frame of size s: the title bar takes
// one row and the border one column each side plus the bottom row.
func bodySize(s desk.Size) (int, int) {
	return max(1, s.Width-2), max(1, s.Height-frame.TitleBarHeight-1)
}

// refresh re-renders the widget into the viewport.
func (w *window) refresh(s desk.Size) {
	bw, bh := bodySize(s)
	w.vp.Width = bw
	w.vp.Height = bh
	if w.content == nil {
		w.vp.SetContent("")
		return
	}
	w.vp.SetContent(w.content.View(bw, bh))
}

// contentOrigin returns the screen cell of the widget's top-left corner.
func (w *window) contentOrigin() desk.Point {
	b := w.frame.Bounds()
	return desk.Point{X: b.X + 1, Y: b.Y + frame.TitleBarHeight}
}

func (w *window) render(focused bool) string {
	b := w.frame.Bounds()
	return renderTitleBar(w.icon, w.title, b.Width, focused) + "\n" + bodyStyle.Render(w.vp.View())
}

func renderTitleBar(icon, title string, width int, focused bool) string {
	style := titleBlurredStyle
	if focused {
		style = titleFocusedStyle
	}

	label := " " + title
	if icon != "" {
		label = " " + icon + label
	}
	// Room left of the close control.
	avail := max(0, width-frame.CloseWidth-frame.CloseInset)
	label = ansi.Truncate(label, avail, "…")
	pad := avail - ansi.StringWidth(label)

	var b strings.Builder
	b.WriteString(style.Render(label + strings.Repeat(" ", pad)))
	b.WriteString(closeButtonStyle.Render("[x]"))
	b.WriteString(style.Render(strings.Repeat(" ", frame.CloseInset)))
	return b.String()
}
