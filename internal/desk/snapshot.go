package desk

// Layer is a paint priority. Higher layers paint above lower ones.
type Layer int

const (
	// LayerHidden is reported for closed or unknown windows.
	LayerHidden Layer = iota
	// LayerBase is the layer of every open, unfocused window.
	LayerBase
	// LayerFocused is the layer of the focused window.
	LayerFocused
)

func (l Layer) String() string {
	switch l {
	case LayerHidden:
		return "hidden"
	case LayerBase:
		return "base"
	case LayerFocused:
		return "focused"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the coordinator state. It is safe to hand
// to other goroutines.
type Snapshot[C any] struct {
	version uint64
	windows []Descriptor[C]
	focused string
}

// Version increases by one with every state change.
func (s Snapshot[C]) Version() uint64 { return s.version }

// Len returns the number of known windows, open or closed.
func (s Snapshot[C]) Len() int { return len(s.windows) }

// Windows returns every known descriptor in insertion order.
func (s Snapshot[C]) Windows() []Descriptor[C] {
	out := make([]Descriptor[C], len(s.windows))
	copy(out, s.windows)
	return out
}

// Get returns the descriptor for id.
func (s Snapshot[C]) Get(id string) (Descriptor[C], bool) {
	for _, d := range s.windows {
		if d.ID == id {
			return d, true
		}
	}
	var zero Descriptor[C]
	return zero, false
}

// IsOpen reports whether id is known and open.
func (s Snapshot[C]) IsOpen(id string) bool {
	d, ok := s.Get(id)
	return ok && d.Open
}

// Focused returns the focused window id, if any.
func (s Snapshot[C]) Focused() (string, bool) {
	return s.focused, s.focused != ""
}

// Layer returns the paint priority of id.
func (s Snapshot[C]) Layer(id string) Layer {
	if !s.IsOpen(id) {
		return LayerHidden
	}
	if id == s.focused {
		return LayerFocused
	}
	return LayerBase
}

// PaintOrder returns the open windows bottom to top: insertion order, with
// the focused window moved last.
func (s Snapshot[C]) PaintOrder() []Descriptor[C] {
	out := make([]Descriptor[C], 0, len(s.windows))
	var top *Descriptor[C]
	for i := range s.windows {
		d := s.windows[i]
		if !d.Open {
			continue
		}
		if d.ID == s.focused {
			top = &d
			continue
		}
		out = append(out, d)
	}
	if top != nil {
		out = append(out, *top)
	}
	return out
}

// WindowState is the serializable form of a descriptor, without content.
type WindowState struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Icon     string `json:"icon,omitempty"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
	Open     bool   `json:"open"`
	Focused  bool   `json:"focused"`
	Layer    string `json:"layer"`
}

// State is the serializable form of a snapshot.
type State struct {
	Version uint64        `json:"version"`
	Focused string        `json:"focused,omitempty"`
	Windows []WindowState `json:"windows"`
}

// State converts s into its serializable form.
func (s Snapshot[C]) State() State {
	st := State{
		Version: s.version,
		Focused: s.focused,
		Windows: make([]WindowState, 0, len(s.windows)),
	}
	for _, d := range s.windows {
		st.Windows = append(st.Windows, WindowState{
			ID:       d.ID,
			Title:    d.Title,
			Icon:     d.Icon,
			Position: d.Position,
			Size:     d.Size,
			Open:     d.Open,
			Focused:  d.ID == s.focused,
			Layer:    s.Layer(d.ID).String(),
		})
	}
	return st
}

// Window returns the entry for id.
func (s State) Window(id string) (WindowState, bool) {
	for _, w := range s.Windows {
		if w.ID == id {
			return w, true
		}
	}
	return WindowState{}, false
}
