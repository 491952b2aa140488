package client

import (
	"fmt"

	"github.com/go-faster/errors"
)

// State is the lifecycle state of the connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventOpened is emitted once the transport handshake completed.
	EventOpened EventKind = iota + 1
	// EventFrame carries one raw frame, in arrival order.
	EventFrame
	// EventError reports an abnormal termination. At most once per
	// connection, always followed by EventClosed.
	EventError
	// EventClosed is emitted exactly once per opened connection, after
	// every frame read from it.
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventFrame:
		return "frame"
	case EventError:
		return "error"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a lifecycle signal or an incoming frame.
type Event struct {
	Kind EventKind

	// Session identifies the connection the event belongs to.
	Session string

	// Frame is set for EventFrame.
	Frame []byte

	// Err is set for EventError.
	Err error
}

// Connection errors.
var (
	ErrConnection        = errors.New("client: connection failed")
	ErrAlreadyConnecting = errors.New("client: connection attempt already in flight")
	ErrAlreadyConnected  = errors.New("client: already connected")
)

// ConnectionError describes a failed dial or a broken connection.
type ConnectionError struct {
	Op   string // "dial" or "read"
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s %s: %v", e.Op, e.Addr, e.Err)
}

// Is makes every ConnectionError match ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
