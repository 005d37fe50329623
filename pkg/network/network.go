package network

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/cbodonnell/chatline/pkg/endpoint"
	"github.com/cbodonnell/chatline/pkg/log"
)

// Transport selects how the line stream reaches the peer.
type Transport string

const (
	TransportTCP       Transport = "tcp"
	TransportWebSocket Transport = "ws"
)

const DefaultWSPath = "/"

// ParseTransport parses a transport name. Valid transports are: tcp, ws.
func ParseTransport(s string) (Transport, error) {
	switch Transport(strings.ToLower(strings.TrimSpace(s))) {
	case TransportTCP:
		return TransportTCP, nil
	case TransportWebSocket:
		return TransportWebSocket, nil
	default:
		return "", fmt.Errorf("unknown transport: %s", s)
	}
}

// Connector opens the single connection a chat session runs over.
type Connector struct {
	transport Transport
	wsPath    string
}

type NewConnectorOptions struct {
	Transport Transport
	// WSPath is the request path used by the ws transport.
	WSPath string
}

func NewConnector(opts NewConnectorOptions) *Connector {
	transport := opts.Transport
	if transport == "" {
		transport = TransportTCP
	}
	wsPath := opts.WSPath
	if wsPath == "" {
		wsPath = DefaultWSPath
	}
	if !strings.HasPrefix(wsPath, "/") {
		wsPath = "/" + wsPath
	}
	return &Connector{
		transport: transport,
		wsPath:    wsPath,
	}
}

// Dial makes exactly one connection attempt to the endpoint.
// There is no retry; a failure is returned as a *ConnectError.
func (c *Connector) Dial(ctx context.Context, e endpoint.Endpoint) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	switch c.transport {
	case TransportTCP:
		conn, err = dialTCP(ctx, e)
	case TransportWebSocket:
		conn, err = dialWS(ctx, e, c.wsPath)
	default:
		err = fmt.Errorf("unsupported transport: %s", c.transport)
	}
	if err != nil {
		return nil, &ConnectError{Endpoint: e, Err: err}
	}

	log.Info("Connected to %s via %s", e, c.transport)
	return conn, nil
}
