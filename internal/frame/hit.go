package frame

import "github.com/1broseidon/termdesk/internal/desk"

// Region identifies the part of a frame under the pointer.
type Region int

const (
	RegionOutside Region = iota
	RegionTitleBar
	RegionClose
	RegionBody
)

func (r Region) String() string {
	switch r {
	case RegionTitleBar:
		return "title"
	case RegionClose:
		return "close"
	case RegionBody:
		return "body"
	default:
		return "outside"
	}
}

// Title bar geometry. The close control "[x]" sits at the right end of the
// title row with one cell of padding after it.
const (
	TitleBarHeight = 1
	CloseWidth     = 3
	CloseInset     = 1
)

// CloseRect returns the close control rectangle of a frame at bounds.
func CloseRect(bounds desk.Rect) desk.Rect {
	return desk.Rect{
		X:      bounds.X + bounds.Width - CloseWidth - CloseInset,
		Y:      bounds.Y,
		Width:  CloseWidth,
		Height: TitleBarHeight,
	}
}

// HitTest classifies p against a frame occupying bounds.
func HitTest(bounds desk.Rect, p desk.Point) Region {
	if !bounds.Contains(p) {
		return RegionOutside
	}
	if p.Y < bounds.Y+TitleBarHeight {
		if CloseRect(bounds).Contains(p) {
			return RegionClose
		}
		return RegionTitleBar
	}
	return RegionBody
}
