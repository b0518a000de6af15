package frame

import (
	"github.com/1broseidon/termdesk/internal/desk"
)

// Phase is the gesture state of a frame.
type Phase int

const (
	// PhaseIdle means no drag is in progress.
	PhaseIdle Phase = iota
	// PhaseDragging means the title bar was pressed and the pointer has not
	// been released yet.
	PhaseDragging
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Controller is the subset of the window coordinator a frame calls into.
type Controller interface {
	BringToFront(id string)
	Close(id string)
	UpdatePosition(id string, p desk.Point)
}

// Frame recognizes drag, focus and close gestures for one window.
//
// A drag is two-phase: pointer moves update a transient position that only
// the frame sees, and the release commits it through Controller.UpdatePosition.
type Frame struct {
	id  string
	ctl Controller

	phase     Phase
	committed desk.Point
	transient desk.Point
	offset    desk.Point
	size      desk.Size
}

// New creates an idle frame for window id.
func New(id string, ctl Controller) *Frame {
	return &Frame{id: id, ctl: ctl}
}

func (f *Frame) ID() string { return f.id }

func (f *Frame) Phase() Phase { return f.phase }

// Dragging reports whether a drag is in progress.
func (f *Frame) Dragging() bool { return f.phase == PhaseDragging }

// Sync adopts the committed geometry from the coordinator. A drag in progress
// keeps its transient position.
func (f *Frame) Sync(pos desk.Point, size desk.Size) {
	f.committed = pos
	f.size = size
	if f.phase == PhaseIdle {
		f.transient = pos
	}
}

// Position returns where the frame should be drawn: the transient position
// while dragging, otherwise the committed one.
func (f *Frame) Position() desk.Point {
	if f.phase == PhaseDragging {
		return f.transient
	}
	return f.committed
}

// Bounds returns the rectangle the frame currently occupies on screen.
func (f *Frame) Bounds() desk.Rect {
	return desk.RectAt(f.Position(), f.size)
}

// Press handles a primary-button press at p. It reports whether the press
// landed on the frame.
func (f *Frame) Press(p desk.Point) bool {
	switch HitTest(f.Bounds(), p) {
	case RegionClose:
		f.Close()
		return true
	case RegionTitleBar:
		if f.phase == PhaseDragging {
			return true
		}
		pos := f.Position()
		f.offset = p.Sub(pos)
		f.transient = pos
		f.phase = PhaseDragging
		f.ctl.BringToFront(f.id)
		return true
	case RegionBody:
		f.ctl.BringToFront(f.id)
		return true
	default:
		return false
	}
}

// Move handles pointer motion anywhere on screen. Only a dragging frame
// reacts.
func (f *Frame) Move(p desk.Point) bool {
	if f.phase != PhaseDragging {
		return false
	}
	f.transient = p.Sub(f.offset)
	return true
}

// Release ends a drag and commits the final position. The release point may
// be anywhere on screen.
func (f *Frame) Release(p desk.Point) bool {
	if f.phase != PhaseDragging {
		return false
	}
	f.transient = p.Sub(f.offset)
	f.phase = PhaseIdle
	f.committed = f.transient
	f.ctl.UpdatePosition(f.id, f.committed)
	return true
}

// Close closes the window. A drag in progress is abandoned without committing.
func (f *Frame) Close() {
	f.Cancel()
	f.ctl.Close(f.id)
}

// Cancel abandons a drag without committing it.
func (f *Frame) Cancel() {
	f.phase = PhaseIdle
	f.transient = f.committed
	f.offset = desk.Point{}
}
