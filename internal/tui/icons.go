package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/1broseidon/termdesk/internal/config"
	"github.com/1broseidon/termdesk/internal/desk"
)

const (
	iconWidth   = 12
	iconHeight  = 2
	doubleClick = 500 * time.Millisecond
)

var (
	iconStyle = lipgloss.NewStyle().
			Width(iconWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("15"))

	iconSelectedStyle = iconStyle.
				Background(lipgloss.Color("62"))
)

type icon struct {
	window string
	label  string
	glyph  string
	pos    desk.Point
}

func (i icon) bounds() desk.Rect {
	return desk.RectAt(i.pos, desk.Size{Width: iconWidth, Height: iconHeight})
}

func (i icon) render(selected bool) string {
	style := iconStyle
	if selected {
		style = iconSelectedStyle
	}
	glyph := i.glyph
	if glyph == "" {
		glyph = "□"
	}
	label := ansi.Truncate(i.label, iconWidth, "…")
	return style.Render(glyph) + "\n" + style.Render(label)
}

// iconLayer tracks desktop icons, the selection and an icon drag.
type iconLayer struct {
	icons    []icon
	selected int // -1 when nothing is selected

	lastPress     time.Time
	lastPressIcon int

	dragging   bool
	dragOffset desk.Point
}

func newIconLayer(cfg []config.IconConfig) iconLayer {
	l := iconLayer{selected: -1, lastPressIcon: -1}
	for _, c := range cfg {
		l.icons = append(l.icons, icon{
			window: c.Window,
			label:  c.Label,
			glyph:  c.Glyph,
			pos:    desk.Point{X: c.X, Y: c.Y},
		})
	}
	return l
}

// hit returns the index of the topmost icon under p, or -1.
func (l *iconLayer) hit(p desk.Point) int {
	for i := len(l.icons) - 1; i >= 0; i-- {
		if l.icons[i].bounds().Contains(p) {
			return i
		}
	}
	return -1
}

// press handles a press on icon i at p. It returns the window to open when
// the press completes a double click.
func (l *iconLayer) press(i int, p desk.Point, now time.Time) (open string) {
	double := i == l.lastPressIcon && now.Sub(l.lastPress) <= doubleClick
	wasSelected := l.selected == i

	l.selected = i
	l.lastPress = now
	l.lastPressIcon = i

	if double {
		l.lastPressIcon = -1
		return l.icons[i].window
	}
	if wasSelected {
		l.dragging = true
		l.dragOffset = p.Sub(l.icons[i].pos)
	}
	return ""
}

// move drags the selected icon, keeping it inside area.
func (l *iconLayer) move(p desk.Point, area desk.Rect) {
	if !l.dragging || l.selected < 0 {
		return
	}
	l.icons[l.selected].pos = area.Clamp(p.Sub(l.dragOffset), desk.Size{Width: iconWidth, Height: iconHeight})
}

func (l *iconLayer) release() {
	l.dragging = false
}

func (l *iconLayer) deselect() {
	l.selected = -1
	l.dragging = false
}

func (l *iconLayer) paint(c *canvas) {
	for i, ic := range l.icons {
		c.place(ic.pos.X, ic.pos.Y, ic.render(i == l.selected))
	}
}
