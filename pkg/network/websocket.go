package network

import (
	"context"
	"net"
	"net/url"

	"github.com/cbodonnell/chatline/pkg/endpoint"
	"github.com/cbodonnell/chatline/pkg/log"
	"nhooyr.io/websocket"
)

// WSReadLimit bounds a single inbound WebSocket message.
const WSReadLimit = 1 << 20

// wsURL builds the ws:// URL for an endpoint and request path.
func wsURL(e endpoint.Endpoint, path string) string {
	u := url.URL{
		Scheme: "ws",
		Host:   e.String(),
		Path:   path,
	}
	return u.String()
}

// dialWS connects to a WebSocket peer and exposes the text messages as a byte stream.
// Lines are still delimited by '\n' inside that stream.
func dialWS(ctx context.Context, e endpoint.Endpoint, path string) (net.Conn, error) {
	addr := wsURL(e, path)
	log.Debug("Connecting to WebSocket peer at %s", addr)

	c, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(WSReadLimit)

	// The dial context may be short lived; the connection lives until Close.
	return websocket.NetConn(context.Background(), c, websocket.MessageText), nil
}
