package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/runtimepath"
)

// Client talks to a running desktop over its control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for socketPath.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to desktop: %w (is termdesk running?)", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, req *Request) error {
	reqData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return nil
}

func readResponse(reader *bufio.Reader) (*Response, error) {
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("desktop error: %s", resp.Error)
	}
	return &resp, nil
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeRequest(conn, req); err != nil {
		return nil, err
	}
	return readResponse(bufio.NewReader(conn))
}

func (c *Client) call(cmd CommandType, payload, out interface{}) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// GetStatus retrieves desktop status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetState retrieves the window state.
func (c *Client) GetState() (*desk.State, error) {
	var st desk.State
	if err := c.call(CommandGetState, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListLaunchers retrieves the windows that can be opened.
func (c *Client) ListLaunchers() ([]launcher.Info, error) {
	var data LaunchersData
	if err := c.call(CommandListLaunchers, nil, &data); err != nil {
		return nil, err
	}
	return data.Launchers, nil
}

// OpenWindow opens and focuses the launcher window id.
func (c *Client) OpenWindow(id string) (*WindowData, error) {
	return c.windowCall(CommandOpenWindow, WindowPayload{ID: id})
}

// CloseWindow closes id. Unknown or closed ids are not an error.
func (c *Client) CloseWindow(id string) (*WindowData, error) {
	return c.windowCall(CommandCloseWindow, WindowPayload{ID: id})
}

// FocusWindow brings id to the front.
func (c *Client) FocusWindow(id string) (*WindowData, error) {
	return c.windowCall(CommandFocusWindow, WindowPayload{ID: id})
}

// MoveWindow sets the position of id.
func (c *Client) MoveWindow(id string, x, y int) (*WindowData, error) {
	return c.windowCall(CommandMoveWindow, MovePayload{ID: id, X: x, Y: y})
}

func (c *Client) windowCall(cmd CommandType, payload interface{}) (*WindowData, error) {
	var data WindowData
	if err := c.call(cmd, payload, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Watch calls fn with the current state and then after every change, until
// ctx is done, fn returns an error or the desktop goes away.
func (c *Client) Watch(ctx context.Context, fn func(desk.State) error) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read below when ctx ends.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := writeRequest(conn, &Request{Command: CommandWatchState}); err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Time{})

	reader := bufio.NewReader(conn)
	for {
		resp, err := readResponse(reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var st desk.State
		if err := json.Unmarshal(resp.Data, &st); err != nil {
			return fmt.Errorf("failed to parse state: %w", err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
}

// Ping checks if the desktop is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
