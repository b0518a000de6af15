package desk

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/1broseidon/termdesk/internal/bus"
)

// ErrEmptyID is returned by Open when the request carries no window id.
var ErrEmptyID = errors.New("window id must not be empty")

// OpenRequest describes a window to open. Position and Size are optional:
// a nil Position keeps the retained position of a reopened window (or uses the
// default for a new one), a nil Size uses the default size.
type OpenRequest[C any] struct {
	ID       string
	Title    string
	Content  C
	Icon     string
	Position *Point
	Size     *Size
}

// Options holds coordinator defaults.
type Options struct {
	DefaultPosition Point
	DefaultSize     Size
}

// DefaultOptions returns the stock window placement.
func DefaultOptions() Options {
	return Options{
		DefaultPosition: Point{X: 20, Y: 4},
		DefaultSize:     Size{Width: 50, Height: 16},
	}
}

type Option func(*Options)

func WithDefaultPosition(p Point) Option {
	return func(o *Options) { o.DefaultPosition = p }
}

func WithDefaultSize(s Size) Option {
	return func(o *Options) { o.DefaultSize = s }
}

// Coordinator is the single mutation path for window state. It owns the
// registry and focus tracker, enforces that focus only ever names an open
// window, and publishes a fresh Snapshot after every change.
//
// Operations on unknown ids are silent no-ops so stale callbacks from closed
// windows are harmless.
type Coordinator[C any] struct {
	mu      sync.Mutex
	opts    Options
	reg     registry[C]
	focus   focusTracker
	version uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot[C])
	nextSub int

	pubMu     sync.Mutex
	published uint64
	hub       *bus.Hub[Snapshot[C]]
}

// New creates an empty coordinator.
func New[C any](opts ...Option) *Coordinator[C] {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Coordinator[C]{
		opts: o,
		reg:  newRegistry[C](),
		subs: make(map[int]func(Snapshot[C])),
		hub:  bus.NewHub[Snapshot[C]](),
	}
	c.hub.Broadcast(c.Snapshot())
	return c
}

// Options returns the defaults in effect.
func (c *Coordinator[C]) Options() Options {
	return c.opts
}

// Open creates or updates the window named by req.ID, marks it open and
// focuses it. Reopening an open window refreshes it and brings it to front.
func (c *Coordinator[C]) Open(req OpenRequest[C]) error {
	if req.ID == "" {
		return ErrEmptyID
	}

	c.mu.Lock()
	d, ok := c.reg.get(req.ID)
	if !ok {
		d = c.reg.insert(Descriptor[C]{ID: req.ID, Position: c.opts.DefaultPosition})
	}
	d.Title = req.Title
	d.Content = req.Content
	d.Icon = req.Icon
	d.Open = true
	if req.Position != nil {
		d.Position = *req.Position
	}
	if req.Size != nil {
		d.Size = *req.Size
	} else {
		d.Size = c.opts.DefaultSize
	}
	c.focus.set(req.ID)
	snap := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// Close marks id closed and clears focus if it was focused. The descriptor is
// retained so a later Open restores its position.
func (c *Coordinator[C]) Close(id string) {
	c.mu.Lock()
	d, ok := c.reg.get(id)
	if !ok || !d.Open {
		c.mu.Unlock()
		return
	}
	d.Open = false
	c.focus.clearIf(id)
	snap := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// BringToFront focuses id if it is known and open.
func (c *Coordinator[C]) BringToFront(id string) {
	c.mu.Lock()
	d, ok := c.reg.get(id)
	if !ok || !d.Open || c.focus.current() == id {
		c.mu.Unlock()
		return
	}
	c.focus.set(id)
	snap := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// UpdatePosition overwrites the committed position of id. Focus and open
// state are untouched.
func (c *Coordinator[C]) UpdatePosition(id string, p Point) {
	c.mu.Lock()
	d, ok := c.reg.get(id)
	if !ok || d.Position == p {
		c.mu.Unlock()
		return
	}
	d.Position = p
	snap := c.commitLocked()
	c.mu.Unlock()

	c.publish(snap)
}

// Snapshot returns the current state.
func (c *Coordinator[C]) Snapshot() Snapshot[C] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called with the new snapshot after every state
// change. Calls happen synchronously on the mutating goroutine, outside the
// coordinator lock, so fn may call back into the coordinator. A subscriber
// that mutates state from inside fn will see the nested snapshot before the
// remaining subscribers see the outer one; compare Version when order matters.
func (c *Coordinator[C]) Subscribe(fn func(Snapshot[C])) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Watch returns a channel that yields the current snapshot and then the latest
// snapshot after each change. Readers that fall behind skip intermediate
// versions. The channel closes when ctx is done.
func (c *Coordinator[C]) Watch(ctx context.Context) <-chan Snapshot[C] {
	ch, _ := c.hub.Subscribe(ctx)
	return ch
}

func (c *Coordinator[C]) commitLocked() Snapshot[C] {
	c.enforceFocusLocked()
	c.version++
	return c.snapshotLocked()
}

// enforceFocusLocked drops focus that does not name an open window.
func (c *Coordinator[C]) enforceFocusLocked() {
	id := c.focus.current()
	if id == "" {
		return
	}
	if d, ok := c.reg.get(id); !ok || !d.Open {
		c.focus.clear()
	}
}

func (c *Coordinator[C]) snapshotLocked() Snapshot[C] {
	return Snapshot[C]{
		version: c.version,
		windows: c.reg.copyAll(),
		focused: c.focus.current(),
	}
}

func (c *Coordinator[C]) publish(snap Snapshot[C]) {
	c.pubMu.Lock()
	if snap.version > c.published {
		c.published = snap.version
		c.hub.Broadcast(snap)
	}
	c.pubMu.Unlock()

	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot[C]), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
