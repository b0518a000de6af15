package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/ipc"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	st, err := s.desktop.GetState()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	launchers, err := s.desktop.ListLaunchers()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	windows := make([]desk.WindowState, 0, len(st.Windows))
	for _, w := range st.Windows {
		if args.OpenOnly && !w.Open {
			continue
		}
		windows = append(windows, w)
	}

	s.logger.Debug("list_windows", slog.Int("windows", len(windows)), slog.Int("launchers", len(launchers)))
	return nil, ListWindowsOutput{
		Version:   st.Version,
		Focused:   st.Focused,
		Windows:   windows,
		Launchers: launchers,
	}, nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool("open_window", args.ID, s.desktop.OpenWindow)
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool("close_window", args.ID, s.desktop.CloseWindow)
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool("focus_window", args.ID, s.desktop.FocusWindow)
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	return s.windowTool("move_window", args.ID, func(id string) (*ipc.WindowData, error) {
		return s.desktop.MoveWindow(id, args.X, args.Y)
	})
}

// windowTool runs apply against id and reports whether the desktop state
// version moved.
func (s *Server) windowTool(tool, id string, apply func(id string) (*ipc.WindowData, error)) (*mcpsdk.CallToolResult, WindowOutput, error) {
	if id == "" {
		return nil, WindowOutput{}, fmt.Errorf("%s: id is required", tool)
	}
	before, err := s.desktop.GetState()
	if err != nil {
		return nil, WindowOutput{}, err
	}
	data, err := apply(id)
	if err != nil {
		s.logger.Info(tool, slog.String("id", id), slog.Any("error", err))
		return nil, WindowOutput{}, err
	}

	out := WindowOutput{
		Window:  data.Window,
		Focused: data.State.Focused,
		Changed: data.State.Version != before.Version,
	}
	s.logger.Debug(tool, slog.String("id", id), slog.Bool("changed", out.Changed))
	return nil, out, nil
}
