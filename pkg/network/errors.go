package network

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/cbodonnell/chatline/pkg/endpoint"
	"nhooyr.io/websocket"
)

// ErrConnectionClosedByServer is returned when the peer closes the connection
type ErrConnectionClosedByServer struct{}

func (e *ErrConnectionClosedByServer) Error() string {
	return "connection closed by server"
}

// ErrConnectionClosedByClient is returned when the connection was closed locally
type ErrConnectionClosedByClient struct{}

func (e *ErrConnectionClosedByClient) Error() string {
	return "connection closed by client"
}

// ConnectError is returned when the connection to the peer cannot be established.
type ConnectError struct {
	Endpoint endpoint.Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ClassifyReadError maps a read failure on a session connection to
// *ErrConnectionClosedByServer, *ErrConnectionClosedByClient or a wrapped read error.
func ClassifyReadError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return &ErrConnectionClosedByServer{}
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return &ErrConnectionClosedByClient{}
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return &ErrConnectionClosedByServer{}
	}
	return fmt.Errorf("failed to read from connection: %w", err)
}
