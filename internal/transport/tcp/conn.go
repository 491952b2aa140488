// Package tcp provides a raw TCP transport with length-prefixed frames.
package tcp

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/omochice/bobba-client/internal/transport"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// HeaderSize is the size of the big-endian length prefix of every frame.
const HeaderSize = 4

// ErrFrameTooLarge is returned for frames above protocol.MaxFrameSize.
var ErrFrameTooLarge = errors.Errorf("tcp: frame exceeds %d bytes", protocol.MaxFrameSize)

// Conn adapts net.Conn to transport.Conn.
//
// Wire format per frame: [4 bytes length][payload].
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, reader: bufio.NewReader(conn)}
}

// Read implements transport.Conn.
// A clean EOF between frames is reported as io.EOF; an EOF inside a frame
// is io.ErrUnexpectedEOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(c.reader, header); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header)
	if length > protocol.MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.reader, payload); err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// Write implements transport.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	if len(data) > protocol.MaxFrameSize {
		return ErrFrameTooLarge
	}

	buf := make([]byte, HeaderSize+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[HeaderSize:], data)

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	_, err := c.conn.Write(buf)
	return err
}

// Close implements transport.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements transport.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Dialer opens TCP connections, wrapped in TLS when secure is set.
type Dialer struct {
	Timeout   time.Duration
	TLSConfig *tls.Config
}

// Dial implements transport.Dialer.
func (d *Dialer) Dial(ctx context.Context, host string, port int, secure bool) (transport.Conn, error) {
	addr := transport.HostPort(host, port)
	netDialer := &net.Dialer{Timeout: d.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if secure {
		cfg := d.TLSConfig
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg = cfg.Clone()
			cfg.ServerName = host
		}
		tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: cfg}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return NewConn(conn), nil
}
