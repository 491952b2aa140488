// Package transport abstracts whole-frame connections to the game server.
package transport

import (
	"context"
	"net"
	"strconv"
)

// Conn is a bidirectional, frame-oriented connection. Each Write sends
// exactly one logical message and each Read returns exactly one frame.
type Conn interface {
	// Read reads a single frame.
	// Returns io.EOF when the peer closed the connection normally.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single frame. Safe for concurrent use.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection. A blocked Read returns an error.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Dialer opens a Conn to host:port, with TLS when secure is set.
type Dialer interface {
	Dial(ctx context.Context, host string, port int, secure bool) (Conn, error)
}

// HostPort joins host and port the way every dialer expects.
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
