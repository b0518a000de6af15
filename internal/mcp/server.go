package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/ipc"
	"github.com/1broseidon/termdesk/internal/launcher"
)

const (
	ServerName    = "termdesk"
	ServerVersion = "0.1.0"
)

// Desktop is the remote desktop the tools drive. *ipc.Client implements it.
type Desktop interface {
	GetState() (*desk.State, error)
	ListLaunchers() ([]launcher.Info, error)
	OpenWindow(id string) (*ipc.WindowData, error)
	CloseWindow(id string) (*ipc.WindowData, error)
	FocusWindow(id string) (*ipc.WindowData, error)
	MoveWindow(id string, x, y int) (*ipc.WindowData, error)
}

// Server is the MCP server exposing desktop window control.
type Server struct {
	mcpServer *mcpsdk.Server
	desktop   Desktop
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by desktop.
func NewServer(desktop Desktop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		desktop: desktop,
		logger:  logger.With(slog.String("component", "mcp")),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the desktop's windows (open and closed, with position, size and layer), the focused window, and every launcher that open_window accepts.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open a window by launcher id and bring it to the front. Reopening an open window refreshes its content. Unknown ids fail with a suggestion.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window. Closing an unknown or already closed window does nothing.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Bring an open window to the front. Closed or unknown windows are left alone.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window's top-left corner to (x, y). Moving does not change focus.",
	}, s.handleMoveWindow)
}
