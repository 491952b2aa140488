package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/gobwas/ws"

	"github.com/omochice/bobba-client/internal/transport"
)

// Dialer opens WebSocket connections to ws://host:port or wss://host:port.
type Dialer struct {
	// Timeout bounds the TCP connect and the upgrade handshake.
	Timeout time.Duration

	// TLSConfig is used for wss. Nil means the system defaults.
	TLSConfig *tls.Config

	// Path is appended to the URL. Empty means "/".
	Path string
}

// URL returns the address Dial connects to.
func (d *Dialer) URL(host string, port int, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	path := d.Path
	if path == "" {
		path = "/"
	}
	return scheme + "://" + transport.HostPort(host, port) + path
}

// Dial implements transport.Dialer.
func (d *Dialer) Dial(ctx context.Context, host string, port int, secure bool) (transport.Conn, error) {
	url := d.URL(host, port, secure)
	dialer := ws.Dialer{
		Timeout:   d.Timeout,
		TLSConfig: d.TLSConfig,
	}

	conn, br, _, err := dialer.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	return NewConn(conn, br), nil
}
