package ipc

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/bnema/wayfold/internal/logger"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNotRunning is returned when nothing listens on the socket.
var ErrNotRunning = errors.New("wayfold is not running")

// Client handles IPC communication with a running compositor
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for socketPath, or for the per-user default
// when socketPath is empty.
func NewClient(socketPath string) (*Client, error) {
	if socketPath == "" {
		var err error
		if socketPath, err = GetSocketPath(); err != nil {
			return nil, fmt.Errorf("failed to get socket path: %w", err)
		}
	}
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}, nil
}

// SetTimeout bounds each request, connection included.
func (c *Client) SetTimeout(timeout time.Duration) { c.timeout = timeout }

// Status queries the compositor summary.
func (c *Client) Status() (StatusInfo, error) {
	resp, err := c.request(MessageTypeStatus)
	if err != nil {
		return StatusInfo{}, err
	}
	return GetStatusResponse(resp)
}

// Outputs lists the compositor's outputs.
func (c *Client) Outputs() ([]OutputInfo, error) {
	resp, err := c.request(MessageTypeOutputs)
	if err != nil {
		return nil, err
	}
	return GetOutputsResponse(resp)
}

// Scene lists the scene views front to back.
func (c *Client) Scene() ([]ViewInfo, error) {
	resp, err := c.request(MessageTypeScene)
	if err != nil {
		return nil, err
	}
	return GetSceneResponse(resp)
}

// IsRunning reports whether a compositor answers on the socket.
func (c *Client) IsRunning() bool {
	_, err := c.Status()
	return err == nil
}

func (c *Client) request(msgType string) (*structpb.Struct, error) {
	msg, err := NewRequest(msgType)
	if err != nil {
		return nil, err
	}
	resp, err := c.sendMessage(msg)
	if err != nil {
		return nil, err
	}
	if MessageType(resp) == MessageTypeError {
		text, _ := GetError(resp)
		return nil, fmt.Errorf("server error: %s", text)
	}
	return resp, nil
}

// sendMessage sends a message and returns the response
func (c *Client) sendMessage(msg *structpb.Struct) (*structpb.Struct, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isNotListening(err) {
			return nil, ErrNotRunning
		}
		return nil, fmt.Errorf("failed to connect to wayfold: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := WriteMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	response, err := ReadMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return response, nil
}

// isNotListening reports a missing socket file or a stale one.
func isNotListening(err error) bool {
	return errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED)
}
