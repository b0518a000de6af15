package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// canvas is a fixed-size grid of styled rows that blocks are painted onto,
// later blocks covering earlier ones.
type canvas struct {
	width  int
	height int
	rows   []string
}

func newCanvas(width, height int, fill lipgloss.Style) *canvas {
	c := &canvas{width: width, height: height, rows: make([]string, height)}
	blank := fill.Render(strings.Repeat(" ", width))
	for i := range c.rows {
		c.rows[i] = blank
	}
	return c
}

// place paints block with its top-left cell at (x, y). Parts outside the
// canvas are clipped.
func (c *canvas) place(x, y int, block string) {
	for i, line := range strings.Split(block, "\n") {
		row := y + i
		if row < 0 || row >= c.height {
			continue
		}
		left := x
		w := ansi.StringWidth(line)
		if left < 0 {
			line = ansi.TruncateLeft(line, -left, "")
			w += left
			left = 0
		}
		if w <= 0 || left >= c.width {
			continue
		}
		if left+w > c.width {
			line = ansi.Truncate(line, c.width-left, "")
			w = c.width - left
		}
		base := c.rows[row]
		c.rows[row] = ansi.Truncate(base, left, "") + line + ansi.TruncateLeft(base, left+w, "")
	}
}

func (c *canvas) String() string {
	return strings.Join(c.rows, "\n")
}
