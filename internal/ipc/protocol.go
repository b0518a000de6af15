package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetState      CommandType = "GET_STATE"
	CommandOpenWindow    CommandType = "OPEN_WINDOW"
	CommandCloseWindow   CommandType = "CLOSE_WINDOW"
	CommandFocusWindow   CommandType = "FOCUS_WINDOW"
	CommandMoveWindow    CommandType = "MOVE_WINDOW"
	CommandListLaunchers CommandType = "LIST_LAUNCHERS"
	// CommandWatchState keeps the connection open and streams one response
	// line per state change.
	CommandWatchState CommandType = "WATCH_STATE"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	SessionID     string `json:"session_id"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OpenWindows   int    `json:"open_windows"`
	Focused       string `json:"focused,omitempty"`
	StateVersion  uint64 `json:"state_version"`
}

// WindowPayload names the target of OPEN/CLOSE/FOCUS_WINDOW.
type WindowPayload struct {
	ID string `json:"id"`
}

// MovePayload is the payload of MOVE_WINDOW.
type MovePayload struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// WindowData is returned by the window commands: the target window after the
// change, if it is known, and the full state.
type WindowData struct {
	Window *desk.WindowState `json:"window,omitempty"`
	State  desk.State        `json:"state"`
}

type LaunchersData struct {
	Launchers []launcher.Info `json:"launchers"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// NewRequest builds a request, marshalling payload when it is not nil.
func NewRequest(cmd CommandType, payload interface{}) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	return req, nil
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
