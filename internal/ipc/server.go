package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/runtimepath"
)

// requestTimeout bounds how long a command may wait on the desktop.
const requestTimeout = 5 * time.Second

// Desktop is the running desktop as seen by the IPC server.
type Desktop interface {
	State() desk.State
	Launchers() []launcher.Info
	Watch(ctx context.Context) <-chan desk.State
	Open(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
	Focus(ctx context.Context, id string) error
	Move(ctx context.Context, id string, p desk.Point) error
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// SocketPath overrides the runtime-dir socket.
	SocketPath string
	Version    string
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	desktop    Desktop
	log        *slog.Logger
	version    string
	sessionID  string
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
	stop         chan struct{}
}

// NewServer creates a new IPC server
func NewServer(desktop Desktop, opts ServerOptions) (*Server, error) {
	socketPath, err := runtimepath.Resolve(opts.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		desktop:    desktop,
		log:        logger.With(slog.String("component", "ipc")),
		version:    opts.Version,
		sessionID:  uuid.NewString(),
		startTime:  time.Now(),
		stop:       make(chan struct{}),
	}, nil
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// SessionID identifies this desktop run.
func (s *Server) SessionID() string { return s.sessionID }

func (s *Server) String() string { return "ipc-server" }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a previous run.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", slog.String("socket", s.socketPath))

	go s.acceptLoop()
	return nil
}

// Serve runs the server until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// Stop closes the listener, ends open watch streams and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	close(s.stop)
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("IPC accept error", slog.Any("error", err))
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request per connection, except WATCH_STATE
// which streams until either side goes away.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	conn.SetReadDeadline(time.Now().Add(requestTimeout))
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug("IPC read error", slog.Any("error", err))
		return
	}
	conn.SetReadDeadline(time.Time{})

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	if req.Command == CommandWatchState {
		s.watch(conn, reader)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

func (s *Server) send(conn net.Conn, resp *Response) error {
	data, err := resp.Marshal()
	if err != nil {
		s.log.Error("failed to marshal response", slog.Any("error", err))
		return err
	}
	data = append(data, '\n')
	conn.SetWriteDeadline(time.Now().Add(requestTimeout))
	if _, err := conn.Write(data); err != nil {
		s.log.Debug("failed to send response", slog.Any("error", err))
		return err
	}
	return nil
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return ok(s.status())
	case CommandGetState:
		return ok(s.desktop.State())
	case CommandListLaunchers:
		return ok(LaunchersData{Launchers: s.desktop.Launchers()})
	case CommandOpenWindow:
		return s.windowCommand(req, func(id string) error { return s.desktop.Open(ctx, id) })
	case CommandCloseWindow:
		return s.windowCommand(req, func(id string) error { return s.desktop.Close(ctx, id) })
	case CommandFocusWindow:
		return s.windowCommand(req, func(id string) error { return s.desktop.Focus(ctx, id) })
	case CommandMoveWindow:
		return s.handleMove(ctx, req)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) status() StatusData {
	st := s.desktop.State()
	open := 0
	for _, w := range st.Windows {
		if w.Open {
			open++
		}
	}
	return StatusData{
		SessionID:     s.sessionID,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		OpenWindows:   open,
		Focused:       st.Focused,
		StateVersion:  st.Version,
	}
}

func (s *Server) windowCommand(req *Request, apply func(id string) error) *Response {
	var payload WindowPayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if payload.ID == "" {
		return NewErrorResponse("Invalid payload: id is required")
	}
	if err := apply(payload.ID); err != nil {
		return NewErrorResponse(err.Error())
	}
	s.log.Debug("window command", slog.String("command", string(req.Command)), slog.String("id", payload.ID))
	return ok(s.windowData(payload.ID))
}

func (s *Server) handleMove(ctx context.Context, req *Request) *Response {
	var payload MovePayload
	if err := json.Unmarshal(req.Payload, &payload); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if payload.ID == "" {
		return NewErrorResponse("Invalid payload: id is required")
	}
	if err := s.desktop.Move(ctx, payload.ID, desk.Point{X: payload.X, Y: payload.Y}); err != nil {
		return NewErrorResponse(err.Error())
	}
	return ok(s.windowData(payload.ID))
}

func (s *Server) windowData(id string) WindowData {
	st := s.desktop.State()
	data := WindowData{State: st}
	if w, found := st.Window(id); found {
		data.Window = &w
	}
	return data
}

// watch streams state updates to conn until the client disconnects or the
// server stops.
func (s *Server) watch(conn net.Conn, reader *bufio.Reader) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Any read result, including EOF, means the client is done.
	go func() {
		io.Copy(io.Discard, reader)
		cancel()
	}()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	id := uuid.NewString()
	s.log.Debug("watch started", slog.String("watcher", id))
	defer s.log.Debug("watch ended", slog.String("watcher", id))

	for st := range s.desktop.Watch(ctx) {
		if err := s.send(conn, ok(st)); err != nil {
			return
		}
	}
}
