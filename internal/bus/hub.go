package bus

import (
	"context"
	"sync"
)

// Hub fans events out to channel subscribers. Each subscriber channel holds at
// most one pending event; a slow reader only ever sees the most recent one.
// New subscribers receive the last broadcast event immediately.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[*chan T]struct{}
	last    T
	hasLast bool
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[*chan T]struct{}),
	}
}

// Broadcast never blocks.
func (h *Hub[T]) Broadcast(event T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = event
	h.hasLast = true
	for sub := range h.subs {
		offer(*sub, event)
	}
}

// Subscribe registers a channel subscriber. The channel is closed when ctx is
// done or the returned cancel func is called, whichever happens first.
func (h *Hub[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	c := make(chan T, 1)
	key := &c

	h.mu.Lock()
	h.subs[key] = struct{}{}
	if h.hasLast {
		offer(c, h.last)
	}
	h.mu.Unlock()

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, key)
			close(c)
			h.mu.Unlock()
			close(stop)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	return c, cancel
}

// Len returns the number of live subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// offer replaces any pending event in c with event. Callers hold h.mu, so no
// other sender can refill c between the drain and the send.
func offer[T any](c chan T, event T) {
	select {
	case c <- event:
		return
	default:
	}
	select {
	case <-c:
	default:
	}
	select {
	case c <- event:
	default:
	}
}
