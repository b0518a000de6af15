package tui

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/widget"
)

// ErrNotRunning is returned by Remote calls when no desktop program is
// attached or it has exited.
var ErrNotRunning = errors.New("desktop is not running")

// remoteCall runs fn on the event loop and sends its result to reply.
type remoteCall struct {
	fn    func(*Shell) error
	reply chan error
}

// Remote lets callers outside the event loop (IPC, HTTP, MCP) read desktop
// state and request changes. Reads go straight to the coordinator; writes
// are delivered to the shell as messages so every mutation happens on the
// event loop.
type Remote struct {
	desk    *desk.Coordinator[widget.Widget]
	catalog *launcher.Catalog

	mu   sync.Mutex
	send func(tea.Msg)
	done <-chan struct{}
}

func NewRemote(d *desk.Coordinator[widget.Widget], catalog *launcher.Catalog) *Remote {
	return &Remote{desk: d, catalog: catalog}
}

// Attach connects the remote to a running program. done must close when the
// program exits.
func (r *Remote) Attach(send func(tea.Msg), done <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.send = send
	r.done = done
}

// State returns the current window state.
func (r *Remote) State() desk.State {
	return r.desk.Snapshot().State()
}

// Launchers lists the windows that can be opened.
func (r *Remote) Launchers() []launcher.Info {
	return r.catalog.List()
}

// Watch streams the window state after every change, starting with the
// current state. Slow readers skip intermediate states. The channel closes
// when ctx is done.
func (r *Remote) Watch(ctx context.Context) <-chan desk.State {
	snaps := r.desk.Watch(ctx)
	out := make(chan desk.State)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- snap.State():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Open opens the catalog window id and focuses it.
func (r *Remote) Open(ctx context.Context, id string) error {
	req, err := r.catalog.Request(id)
	if err != nil {
		return err
	}
	return r.call(ctx, func(s *Shell) error {
		return s.desk.Open(req)
	})
}

// Close closes id. Unknown or closed ids are ignored.
func (r *Remote) Close(ctx context.Context, id string) error {
	return r.call(ctx, func(s *Shell) error {
		s.desk.Close(id)
		return nil
	})
}

// Focus brings id to the front. Unknown or closed ids are ignored.
func (r *Remote) Focus(ctx context.Context, id string) error {
	return r.call(ctx, func(s *Shell) error {
		s.desk.BringToFront(id)
		return nil
	})
}

// Move sets the committed position of id. Unknown ids are ignored.
func (r *Remote) Move(ctx context.Context, id string, p desk.Point) error {
	return r.call(ctx, func(s *Shell) error {
		s.desk.UpdatePosition(id, p)
		return nil
	})
}

// Call states shared by a caller and the loop. Whichever side moves the
// state off callQueued first decides whether fn runs.
const (
	callQueued int32 = iota
	callRunning
	callAbandoned
)

func (r *Remote) call(ctx context.Context, fn func(*Shell) error) error {
	r.mu.Lock()
	send, done := r.send, r.done
	r.mu.Unlock()
	if send == nil {
		return ErrNotRunning
	}

	var state atomic.Int32
	reply := make(chan error, 1)
	run := func(s *Shell) error {
		if !state.CompareAndSwap(callQueued, callRunning) {
			return context.Canceled
		}
		return fn(s)
	}
	// Send blocks until the loop takes the message or the program exits.
	go send(remoteCall{fn: run, reply: reply})

	select {
	case err := <-reply:
		return err
	case <-done:
		if state.CompareAndSwap(callQueued, callAbandoned) {
			return ErrNotRunning
		}
	case <-ctx.Done():
		if state.CompareAndSwap(callQueued, callAbandoned) {
			return ctx.Err()
		}
	}
	// fn already started on the loop; its result is on the way.
	return <-reply
}
