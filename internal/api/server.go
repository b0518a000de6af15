// Package api serves the desktop state over HTTP and a websocket stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Desktop is the running desktop as seen by the HTTP API.
type Desktop interface {
	State() desk.State
	Launchers() []launcher.Info
	Watch(ctx context.Context) <-chan desk.State
	Open(ctx context.Context, id string) error
	Close(ctx context.Context, id string) error
	Focus(ctx context.Context, id string) error
	Move(ctx context.Context, id string, p desk.Point) error
}

type Options struct {
	Addr    string
	Version string
	Logger  *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	desktop  Desktop
	addr     string
	version  string
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new API server
func NewServer(desktop Desktop, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:  mux.NewRouter(),
		desktop: desktop,
		addr:    opts.Addr,
		version: opts.Version,
		log:     logger.With(slog.String("component", "api")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return loopbackOrigin(r.Header.Get("Origin"))
			},
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/launchers", s.handleGetLaunchers).Methods("GET")

	// The stream route must be registered before /windows/{id}.
	api.HandleFunc("/windows/stream", s.handleWindowStream)
	api.HandleFunc("/windows", s.handleGetWindows).Methods("GET")
	api.HandleFunc("/windows/{id}", s.handleGetWindow).Methods("GET")
	api.HandleFunc("/windows/{id}/open", s.windowAction(Desktop.Open)).Methods("POST")
	api.HandleFunc("/windows/{id}/close", s.windowAction(Desktop.Close)).Methods("POST")
	api.HandleFunc("/windows/{id}/focus", s.windowAction(Desktop.Focus)).Methods("POST")
	api.HandleFunc("/windows/{id}/position", s.handleSetPosition).Methods("PUT")
}

// Handler returns the router wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

func (s *Server) String() string { return "api-server" }

// Serve listens on the configured address until ctx is done. Requests,
// including open streams, see ctx as their parent context.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	s.log.Info("API server listening", slog.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("API shutdown", slog.Any("error", err))
	}
	return ctx.Err()
}

// enableCORS admits browser requests from loopback pages only. Requests
// without an Origin header (curl, scripts) pass through untouched.
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !loopbackOrigin(origin) {
			s.log.Debug("rejected cross-origin request", slog.String("origin", origin), slog.String("path", r.URL.Path))
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loopbackOrigin reports whether origin is empty or names a page served from
// this machine.
func loopbackOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// WindowResponse is returned by the window endpoints. Window is nil when the
// id has never been opened.
type WindowResponse struct {
	Window *desk.WindowState `json:"window"`
	State  desk.State        `json:"state"`
}

type positionRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) handleGetLaunchers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.desktop.Launchers())
}

func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.desktop.State())
}

func (s *Server) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	win, ok := s.desktop.State().Window(id)
	if !ok {
		http.Error(w, fmt.Sprintf("window %q not found", id), http.StatusNotFound)
		return
	}
	writeJSON(w, win)
}

func (s *Server) windowAction(apply func(Desktop, context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		if err := apply(s.desktop, r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeWindow(w, id)
	}
}

func (s *Server) handleSetPosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.X == nil || req.Y == nil {
		http.Error(w, "x and y are required", http.StatusBadRequest)
		return
	}

	if err := s.desktop.Move(r.Context(), id, desk.Point{X: *req.X, Y: *req.Y}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeWindow(w, id)
}

func (s *Server) writeWindow(w http.ResponseWriter, id string) {
	st := s.desktop.State()
	resp := WindowResponse{State: st}
	if win, ok := st.Window(id); ok {
		resp.Window = &win
	}
	writeJSON(w, resp)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, launcher.ErrUnknownWindow):
		code = http.StatusNotFound
	case errors.Is(err, desk.ErrEmptyID):
		code = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	http.Error(w, err.Error(), code)
}

// handleWindowStream sends the current state and then every published state
// as JSON until the client goes away.
func (s *Server) handleWindowStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade error", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := uuid.NewString()
	s.log.Debug("stream client connected", slog.String("client", client))
	defer s.log.Debug("stream client disconnected", slog.String("client", client))

	// Clients never send; a read error means they closed the socket.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for st := range s.desktop.Watch(ctx) {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(st); err != nil {
			s.log.Debug("WebSocket write error", slog.String("client", client), slog.Any("error", err))
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}
