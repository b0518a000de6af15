package desk

// Descriptor is the retained record of one logical window. The Content
// payload is opaque to this package.
type Descriptor[C any] struct {
	ID       string
	Title    string
	Content  C
	Position Point
	Size     Size
	Open     bool
	Icon     string
}

// Bounds returns the window rectangle at its committed position.
func (d Descriptor[C]) Bounds() Rect {
	return RectAt(d.Position, d.Size)
}

// registry is an insertion-ordered id -> descriptor map. Descriptors are
// never removed; closing a window only flips Open.
type registry[C any] struct {
	order []string
	byID  map[string]*Descriptor[C]
}

func newRegistry[C any]() registry[C] {
	return registry[C]{byID: make(map[string]*Descriptor[C])}
}

func (r *registry[C]) get(id string) (*Descriptor[C], bool) {
	d, ok := r.byID[id]
	return d, ok
}

// insert adds d at the end of the insertion order. The caller must ensure the
// id is not already present.
func (r *registry[C]) insert(d Descriptor[C]) *Descriptor[C] {
	stored := d
	r.byID[d.ID] = &stored
	r.order = append(r.order, d.ID)
	return &stored
}

// copyAll returns the descriptors by value in insertion order.
func (r *registry[C]) copyAll() []Descriptor[C] {
	out := make([]Descriptor[C], 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

// focusTracker holds at most one window id. The empty string means no
// window is focused.
type focusTracker struct {
	id string
}

func (f *focusTracker) current() string { return f.id }

func (f *focusTracker) set(id string) { f.id = id }

func (f *focusTracker) clear() { f.id = "" }

// clearIf clears focus when it currently names id.
func (f *focusTracker) clearIf(id string) bool {
	if f.id != "" && f.id == id {
		f.id = ""
		return true
	}
	return false
}
