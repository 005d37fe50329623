package network

import (
	"context"
	"net"

	"github.com/cbodonnell/chatline/pkg/endpoint"
	"github.com/cbodonnell/chatline/pkg/log"
)

func dialTCP(ctx context.Context, e endpoint.Endpoint) (net.Conn, error) {
	log.Debug("Connecting to TCP peer at %s", e)
	var d net.Dialer
	return d.DialContext(ctx, "tcp", e.String())
}
