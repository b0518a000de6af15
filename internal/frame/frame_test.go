package frame

import (
	"fmt"
	"testing"

	"github.com/1broseidon/termdesk/internal/desk"
)

type recorder struct {
	calls []string
}

func (r *recorder) BringToFront(id string) {
	r.calls = append(r.calls, "front:"+id)
}

func (r *recorder) Close(id string) {
	r.calls = append(r.calls, "close:"+id)
}

func (r *recorder) UpdatePosition(id string, p desk.Point) {
	r.calls = append(r.calls, fmt.Sprintf("move:%s:%d,%d", id, p.X, p.Y))
}

func newTestFrame() (*Frame, *recorder) {
	rec := &recorder{}
	f := New("bio", rec)
	f.Sync(desk.Point{X: 10, Y: 5}, desk.Size{Width: 30, Height: 10})
	return f, rec
}

func assertCalls(t *testing.T, rec *recorder, want ...string) {
	t.Helper()
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", rec.calls, want)
		}
	}
}

func TestHitTest(t *testing.T) {
	b := desk.Rect{X: 10, Y: 5, Width: 30, Height: 10}
	tests := []struct {
		p    desk.Point
		want Region
	}{
		{desk.Point{X: 10, Y: 5}, RegionTitleBar},
		{desk.Point{X: 35, Y: 5}, RegionTitleBar},
		{desk.Point{X: 36, Y: 5}, RegionClose},
		{desk.Point{X: 38, Y: 5}, RegionClose},
		{desk.Point{X: 39, Y: 5}, RegionTitleBar},
		{desk.Point{X: 36, Y: 6}, RegionBody},
		{desk.Point{X: 20, Y: 14}, RegionBody},
		{desk.Point{X: 20, Y: 15}, RegionOutside},
		{desk.Point{X: 9, Y: 5}, RegionOutside},
	}
	for _, tt := range tests {
		if got := HitTest(b, tt.p); got != tt.want {
			t.Errorf("HitTest(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDrag_CommitsOnlyOnRelease(t *testing.T) {
	f, rec := newTestFrame()

	if !f.Press(desk.Point{X: 14, Y: 5}) {
		t.Fatal("Press on title bar not handled")
	}
	if f.Phase() != PhaseDragging {
		t.Fatalf("Phase() = %v, want dragging", f.Phase())
	}
	assertCalls(t, rec, "front:bio")

	f.Move(desk.Point{X: 20, Y: 8})
	f.Move(desk.Point{X: 24, Y: 9})
	if got := f.Position(); got != (desk.Point{X: 20, Y: 9}) {
		t.Fatalf("transient Position() = %v, want {20 9}", got)
	}
	assertCalls(t, rec, "front:bio")

	f.Release(desk.Point{X: 30, Y: 2})
	if f.Phase() != PhaseIdle {
		t.Fatalf("Phase() = %v, want idle", f.Phase())
	}
	assertCalls(t, rec, "front:bio", "move:bio:26,2")
	if got := f.Position(); got != (desk.Point{X: 26, Y: 2}) {
		t.Fatalf("Position() = %v, want {26 2}", got)
	}
}

func TestDrag_SyncDuringDragKeepsTransient(t *testing.T) {
	f, _ := newTestFrame()
	f.Press(desk.Point{X: 11, Y: 5})
	f.Move(desk.Point{X: 41, Y: 15})

	f.Sync(desk.Point{X: 0, Y: 0}, desk.Size{Width: 30, Height: 10})
	if got := f.Position(); got != (desk.Point{X: 40, Y: 15}) {
		t.Fatalf("Position() = %v, want {40 15}", got)
	}
}

func TestBodyPressFocusesWithoutDrag(t *testing.T) {
	f, rec := newTestFrame()
	if !f.Press(desk.Point{X: 15, Y: 8}) {
		t.Fatal("Press on body not handled")
	}
	if f.Dragging() {
		t.Fatal("body press must not start a drag")
	}
	if f.Move(desk.Point{X: 1, Y: 1}) || f.Release(desk.Point{X: 1, Y: 1}) {
		t.Fatal("idle frame reacted to move/release")
	}
	assertCalls(t, rec, "front:bio")
}

func TestCloseControl(t *testing.T) {
	f, rec := newTestFrame()
	f.Press(desk.Point{X: 37, Y: 5})
	if f.Dragging() {
		t.Fatal("close press must not start a drag")
	}
	assertCalls(t, rec, "close:bio")
}

func TestCloseDuringDragAbandonsCommit(t *testing.T) {
	f, rec := newTestFrame()
	f.Press(desk.Point{X: 12, Y: 5})
	f.Move(desk.Point{X: 50, Y: 20})
	f.Close()

	if f.Dragging() {
		t.Fatal("expected idle after close")
	}
	if got := f.Position(); got != (desk.Point{X: 10, Y: 5}) {
		t.Fatalf("Position() = %v, want committed {10 5}", got)
	}
	f.Release(desk.Point{X: 50, Y: 20})
	assertCalls(t, rec, "front:bio", "close:bio")
}

func TestPressOutside(t *testing.T) {
	f, rec := newTestFrame()
	if f.Press(desk.Point{X: 0, Y: 0}) {
		t.Fatal("press outside reported as handled")
	}
	assertCalls(t, rec)
}

func TestPhaseString(t *testing.T) {
	if PhaseIdle.String() != "idle" || PhaseDragging.String() != "dragging" {
		t.Fatalf("unexpected phase names %q %q", PhaseIdle, PhaseDragging)
	}
}
