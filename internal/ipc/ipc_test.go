package ipc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
)

// fakeDesktop drives a real coordinator directly, without an event loop.
type fakeDesktop struct {
	desk      *desk.Coordinator[string]
	launchers []launcher.Info
}

func newFakeDesktop() *fakeDesktop {
	return &fakeDesktop{
		desk: desk.New[string](),
		launchers: []launcher.Info{
			{ID: "bio", Title: "Bio.txt", Kind: "text"},
			{ID: "projects", Title: "My Projects", Kind: "projects"},
		},
	}
}

func (f *fakeDesktop) State() desk.State          { return f.desk.Snapshot().State() }
func (f *fakeDesktop) Launchers() []launcher.Info { return f.launchers }

func (f *fakeDesktop) Watch(ctx context.Context) <-chan desk.State {
	out := make(chan desk.State)
	go func() {
		defer close(out)
		for snap := range f.desk.Watch(ctx) {
			select {
			case out <- snap.State():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (f *fakeDesktop) Open(_ context.Context, id string) error {
	for _, l := range f.launchers {
		if l.ID == id {
			return f.desk.Open(desk.OpenRequest[string]{ID: id, Title: l.Title, Content: id})
		}
	}
	return &launcher.UnknownWindowError{ID: id}
}

func (f *fakeDesktop) Close(_ context.Context, id string) error {
	f.desk.Close(id)
	return nil
}

func (f *fakeDesktop) Focus(_ context.Context, id string) error {
	f.desk.BringToFront(id)
	return nil
}

func (f *fakeDesktop) Move(_ context.Context, id string, p desk.Point) error {
	f.desk.UpdatePosition(id, p)
	return nil
}

func startServer(t *testing.T) (*fakeDesktop, *Client, *Server) {
	t.Helper()
	fd := newFakeDesktop()
	socket := filepath.Join(t.TempDir(), "termdesk.sock")
	srv, err := NewServer(fd, ServerOptions{SocketPath: socket, Version: "test"})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return fd, NewClientWithSocket(socket), srv
}

func TestServer_WindowCommands(t *testing.T) {
	_, c, _ := startServer(t)

	data, err := c.OpenWindow("bio")
	if err != nil {
		t.Fatalf("OpenWindow: %v", err)
	}
	if data.Window == nil || !data.Window.Open || !data.Window.Focused {
		t.Fatalf("OpenWindow window = %+v", data.Window)
	}

	if _, err := c.OpenWindow("projects"); err != nil {
		t.Fatalf("OpenWindow: %v", err)
	}
	data, err = c.FocusWindow("bio")
	if err != nil {
		t.Fatalf("FocusWindow: %v", err)
	}
	if data.State.Focused != "bio" {
		t.Fatalf("Focused = %q, want bio", data.State.Focused)
	}

	data, err = c.MoveWindow("bio", 7, 9)
	if err != nil {
		t.Fatalf("MoveWindow: %v", err)
	}
	if data.Window.Position != (desk.Point{X: 7, Y: 9}) {
		t.Fatalf("Position = %v, want (7,9)", data.Window.Position)
	}

	data, err = c.CloseWindow("bio")
	if err != nil {
		t.Fatalf("CloseWindow: %v", err)
	}
	if data.Window.Open || data.State.Focused != "" {
		t.Fatalf("after close: window=%+v focused=%q", data.Window, data.State.Focused)
	}

	st, err := c.GetState()
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if len(st.Windows) != 2 {
		t.Fatalf("GetState windows = %d, want 2", len(st.Windows))
	}
}

func TestServer_NoOpsAreNotErrors(t *testing.T) {
	_, c, _ := startServer(t)

	tests := []struct {
		name string
		call func() (*WindowData, error)
	}{
		{"close unknown", func() (*WindowData, error) { return c.CloseWindow("nope") }},
		{"focus unknown", func() (*WindowData, error) { return c.FocusWindow("nope") }},
		{"move unknown", func() (*WindowData, error) { return c.MoveWindow("nope", 1, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.call()
			if err != nil {
				t.Fatalf("error = %v, want nil", err)
			}
			if data.Window != nil {
				t.Fatalf("Window = %+v, want nil for unknown id", data.Window)
			}
		})
	}
}

func TestServer_Errors(t *testing.T) {
	_, c, _ := startServer(t)

	if _, err := c.OpenWindow("boi"); err == nil || !strings.Contains(err.Error(), `unknown window "boi"`) {
		t.Fatalf("OpenWindow(boi) = %v", err)
	}
	if _, err := c.OpenWindow(""); err == nil || !strings.Contains(err.Error(), "id is required") {
		t.Fatalf("OpenWindow(\"\") = %v", err)
	}
	if err := c.call("BOGUS", nil, nil); err == nil || !strings.Contains(err.Error(), "Unknown command: BOGUS") {
		t.Fatalf("BOGUS = %v", err)
	}
}

func TestServer_InvalidJSON(t *testing.T) {
	_, c, _ := startServer(t)

	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.Write([]byte("{nope\n"))

	_, err = readResponse(bufio.NewReader(conn))
	if err == nil || !strings.Contains(err.Error(), "Invalid request") {
		t.Fatalf("response = %v, want Invalid request", err)
	}
}

func TestServer_StatusAndLaunchers(t *testing.T) {
	_, c, srv := startServer(t)
	c.OpenWindow("bio")

	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.SessionID != srv.SessionID() || status.Version != "test" {
		t.Fatalf("status = %+v", status)
	}
	if status.OpenWindows != 1 || status.Focused != "bio" || status.StateVersion != 1 {
		t.Fatalf("status = %+v", status)
	}

	launchers, err := c.ListLaunchers()
	if err != nil {
		t.Fatalf("ListLaunchers: %v", err)
	}
	if len(launchers) != 2 || launchers[0].ID != "bio" {
		t.Fatalf("launchers = %+v", launchers)
	}
}

func TestClient_Watch(t *testing.T) {
	fd, c, _ := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	states := make(chan desk.State, 16)
	errc := make(chan error, 1)
	go func() {
		errc <- c.Watch(ctx, func(st desk.State) error {
			states <- st
			return nil
		})
	}()

	first := waitState(t, states)
	if first.Version != 0 {
		t.Fatalf("first version = %d, want 0", first.Version)
	}

	fd.desk.Open(desk.OpenRequest[string]{ID: "bio"})
	if st := waitState(t, states); st.Focused != "bio" {
		t.Fatalf("watched state = %+v", st)
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestClient_WatchEndsOnServerStop(t *testing.T) {
	_, c, srv := startServer(t)

	errc := make(chan error, 1)
	go func() {
		errc <- c.Watch(context.Background(), func(desk.State) error { return nil })
	}()
	// Give the watch time to register before stopping.
	time.Sleep(50 * time.Millisecond)
	srv.Stop()

	select {
	case err := <-errc:
		if err == nil {
			t.Fatal("Watch returned nil after the server stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after server stop")
	}
}

func TestClient_NotRunning(t *testing.T) {
	c := NewClientWithSocket(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); err == nil || !strings.Contains(err.Error(), "is termdesk running?") {
		t.Fatalf("Ping() = %v", err)
	}
}

func waitState(t *testing.T, states <-chan desk.State) desk.State {
	t.Helper()
	select {
	case st := <-states:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("no state received")
		return desk.State{}
	}
}
