// Package ws provides the WebSocket transport, built on gobwas/ws.
package ws

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/bobba-client/pkg/protocol"
)

// ErrFrameTooLarge is returned for messages above protocol.MaxFrameSize.
var ErrFrameTooLarge = errors.Errorf("ws: frame exceeds %d bytes", protocol.MaxFrameSize)

// Conn adapts a client-side gobwas/ws connection to transport.Conn.
type Conn struct {
	conn   net.Conn
	reader io.Reader

	// wmu serializes writes: data frames from Write and control replies
	// (pong, close) emitted while reading.
	wmu sync.Mutex
}

// NewConn wraps an upgraded connection. br is the reader returned by the
// dialer and may be nil; when set it holds frames the server sent right
// after the handshake and must be drained before conn.
func NewConn(conn net.Conn, br *bufio.Reader) *Conn {
	c := &Conn{conn: conn, reader: conn}
	if br != nil {
		c.reader = br
	}
	return c
}

// Read implements transport.Conn.
// A close frame with a normal status is reported as io.EOF.
// Control frames are answered transparently; text and binary frames are
// both returned as payload bytes.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		defer c.conn.SetReadDeadline(time.Time{})
	}

	data, err := c.readMessage()
	if err != nil {
		if closed, ok := err.(wsutil.ClosedError); ok && isNormalClosure(closed.Code) {
			return nil, io.EOF
		}
		// The stream ended without a close frame.
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

// readMessage reads the next text or binary message, answering control
// frames on the way. Messages above protocol.MaxFrameSize are rejected.
func (c *Conn) readMessage() ([]byte, error) {
	control := wsutil.ControlFrameHandler(lockedWriter{c}, ws.StateClientSide)
	rd := wsutil.Reader{
		Source:         c.reader,
		State:          ws.StateClientSide,
		CheckUTF8:      true,
		MaxFrameSize:   protocol.MaxFrameSize,
		OnIntermediate: control,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			if errors.Is(err, wsutil.ErrFrameTooLarge) {
				return nil, ErrFrameTooLarge
			}
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := control(hdr, &rd); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}

		// Fragmented messages are capped as a whole.
		data, err := io.ReadAll(io.LimitReader(&rd, protocol.MaxFrameSize+1))
		if err != nil {
			return nil, err
		}
		if len(data) > protocol.MaxFrameSize {
			return nil, ErrFrameTooLarge
		}
		return data, nil
	}
}

// Write implements transport.Conn.
// Writes a binary message to the WebSocket connection.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return wsutil.WriteClientBinary(c.conn, data)
}

// Close implements transport.Conn.
func (c *Conn) Close() error {
	c.wmu.Lock()
	_ = wsutil.WriteClientMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}

// RemoteAddr implements transport.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

type lockedWriter struct {
	c *Conn
}

func (w lockedWriter) Write(p []byte) (int, error) {
	w.c.wmu.Lock()
	defer w.c.wmu.Unlock()
	return w.c.conn.Write(p)
}

func isNormalClosure(code ws.StatusCode) bool {
	switch code {
	case ws.StatusNormalClosure, ws.StatusGoingAway, ws.StatusNoStatusRcvd:
		return true
	default:
		return false
	}
}
