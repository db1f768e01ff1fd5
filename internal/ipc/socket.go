// Package ipc is the control socket of a running compositor. Messages are
// protobuf Structs framed by a 4-byte big endian length.
package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"github.com/bnema/wayfold/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxMessageSize bounds a single frame.
const maxMessageSize = 1 << 20

// SocketServer handles incoming IPC connections
type SocketServer struct {
	mu         sync.Mutex
	listener   net.Listener
	socketPath string
	handler    MessageHandler
	conns      map[net.Conn]struct{}
	wg         conc.WaitGroup
	cancel     context.CancelFunc
	running    bool
	log        *log.Logger
}

// MessageHandler answers queries. Implementations run the queries on the
// compositor's reactor.
type MessageHandler interface {
	HandleStatus() (StatusInfo, error)
	HandleOutputs() ([]OutputInfo, error)
	HandleScene() ([]ViewInfo, error)
}

// NewSocketServer creates a server listening on socketPath, or on the
// per-user default when socketPath is empty.
func NewSocketServer(socketPath string, handler MessageHandler) (*SocketServer, error) {
	if socketPath == "" {
		var err error
		if socketPath, err = GetSocketPath(); err != nil {
			return nil, fmt.Errorf("failed to get socket path: %w", err)
		}
	}
	return &SocketServer{
		socketPath: socketPath,
		handler:    handler,
		conns:      make(map[net.Conn]struct{}),
		log:        logger.WithPrefix("ipc"),
	}, nil
}

func (s *SocketServer) SocketPath() string { return s.socketPath }

// Start starts the socket server
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}
	// user only
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Go(func() { s.acceptConnections(ctx) })

	s.log.Info("IPC socket server started", "path", s.socketPath)
	return nil
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers.
func (s *SocketServer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.listener.Close()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	os.RemoveAll(s.socketPath)
	s.log.Info("IPC socket server stopped")
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("Failed to accept connection", "err", err)
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Go(func() { s.handleConnection(conn) })
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.log.Debug("New IPC connection established")
	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			s.log.Debug("Connection closed or read error", "err", err)
			return
		}
		if err := WriteMessage(conn, s.handleMessage(msg)); err != nil {
			s.log.Error("Failed to send response", "err", err)
			return
		}
	}
}

// handleMessage processes a single message and returns a response
func (s *SocketServer) handleMessage(msg *structpb.Struct) *structpb.Struct {
	var (
		resp *structpb.Struct
		err  error
	)
	switch t := MessageType(msg); t {
	case MessageTypeStatus:
		var info StatusInfo
		if info, err = s.handler.HandleStatus(); err == nil {
			resp, err = NewStatusResponse(info)
		}
	case MessageTypeOutputs:
		var outputs []OutputInfo
		if outputs, err = s.handler.HandleOutputs(); err == nil {
			resp, err = NewOutputsResponse(outputs)
		}
	case MessageTypeScene:
		var views []ViewInfo
		if views, err = s.handler.HandleScene(); err == nil {
			resp, err = NewSceneResponse(views)
		}
	default:
		err = fmt.Errorf("unknown message type: %q", t)
	}
	if err != nil {
		errMsg, _ := NewErrorMessage(err.Error())
		return errMsg
	}
	return resp
}

// ReadMessage reads one length-prefixed message.
func ReadMessage(r io.Reader) (*structpb.Struct, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > maxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}

	msg := &structpb.Struct{}
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return msg, nil
}

// WriteMessage writes one length-prefixed message.
func WriteMessage(w io.Writer, msg *structpb.Struct) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	length := uint32(len(data)) //nolint:gosec // bounded by maxMessageSize on the reading side
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}
	return nil
}

// GetSocketPath returns the per-user default socket path,
// /tmp/wayfold-<user>.sock.
func GetSocketPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join("/tmp", fmt.Sprintf("wayfold-%s.sock", currentUser.Username)), nil
}
