// Package client owns the connection to the game server.
package client

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omochice/bobba-client/internal/metrics"
	"github.com/omochice/bobba-client/internal/transport"
	"github.com/omochice/bobba-client/internal/transport/ws"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// DefaultEventBuffer is the capacity of the Events channel.
const DefaultEventBuffer = 256

// connection is one opened transport and its reader.
type connection struct {
	id      string
	conn    transport.Conn
	done    chan struct{}
	closing atomic.Bool
}

// Manager connects to the server, sends outgoing messages and publishes
// incoming frames and lifecycle signals on a single ordered channel.
//
// Manager is the only owner of the transport. It never reconnects on its
// own.
type Manager struct {
	dialer  transport.Dialer
	logger  *zap.Logger
	metrics *metrics.Metrics
	events  chan Event

	mu      sync.Mutex
	state   State
	current *connection
	last    *connection
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	dialer  transport.Dialer
	logger  *zap.Logger
	metrics *metrics.Metrics
	buffer  int
}

// WithDialer sets the transport. The default is the WebSocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(o *managerOptions) {
		o.dialer = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *managerOptions) {
		o.metrics = m
	}
}

// WithEventBuffer sets the capacity of the Events channel.
func WithEventBuffer(n int) Option {
	return func(o *managerOptions) {
		o.buffer = n
	}
}

// NewManager creates a disconnected Manager.
func NewManager(opts ...Option) *Manager {
	o := managerOptions{buffer: DefaultEventBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialer == nil {
		o.dialer = &ws.Dialer{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}
	if o.buffer < 0 {
		o.buffer = 0
	}

	return &Manager{
		dialer:  o.dialer,
		logger:  o.logger.Named("client"),
		metrics: o.metrics,
		events:  make(chan Event, o.buffer),
	}
}

// Events returns the channel carrying frames and lifecycle signals. The
// channel lives as long as the Manager and is shared by every connection.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the state is StateConnected.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// Connect dials host:port and blocks until the connection is open or the
// attempt failed. EventOpened is published before any frame.
//
// If a previous connection is still delivering its final events, Connect
// waits for it first so that events of two connections never interleave.
// Events of earlier connections still buffered at that point are dropped:
// the first event after Connect returns is always its own EventOpened.
func (m *Manager) Connect(ctx context.Context, host string, port int, secure bool) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting:
		m.mu.Unlock()
		return ErrAlreadyConnecting
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.setState(StateConnecting)
	last := m.last
	m.mu.Unlock()

	addr := transport.HostPort(host, port)
	id := uuid.NewString()
	logger := m.logger.With(zap.String("session", id), zap.String("addr", addr))

	if last != nil {
		if err := m.discard(ctx, last); err != nil {
			m.resetState()
			return &ConnectionError{Op: "dial", Addr: addr, Err: err}
		}
	}

	logger.Debug("Connecting", zap.Bool("secure", secure))
	conn, err := m.dialer.Dial(ctx, host, port, secure)
	if err != nil {
		m.resetState()
		logger.Error("Failed to connect", zap.Error(err))
		return &ConnectionError{Op: "dial", Addr: addr, Err: err}
	}

	c := &connection{id: id, conn: conn, done: make(chan struct{})}

	m.mu.Lock()
	m.current = c
	m.last = c
	m.setState(StateConnected)
	m.mu.Unlock()

	logger.Info("Connected", zap.String("remote", conn.RemoteAddr()))
	m.events <- Event{Kind: EventOpened, Session: id}

	go m.readLoop(c, logger)
	return nil
}

// Send encodes msg and writes it. When not connected the message is
// dropped and Send returns nil; nothing is queued for a later connection.
func (m *Manager) Send(msg *protocol.OutgoingMessage) error {
	m.mu.Lock()
	c := m.current
	m.mu.Unlock()

	if c == nil {
		m.logger.Debug("Dropped message while disconnected", zap.String("message", msg.Name()))
		m.metrics.MessagesDropped.Inc()
		return nil
	}

	data, err := msg.Encode()
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", msg.Name())
	}

	if err := c.conn.Write(context.Background(), data); err != nil {
		if m.released(c) {
			m.logger.Debug("Dropped message on closed connection",
				zap.String("session", c.id),
				zap.String("message", msg.Name()),
			)
			m.metrics.MessagesDropped.Inc()
			return nil
		}
		return errors.Wrapf(err, "failed to send %s", msg.Name())
	}

	m.logger.Debug("Sent",
		zap.String("session", c.id),
		zap.String("message", msg.Name()),
		zap.Int("bytes", len(data)),
	)
	m.metrics.MessagesSent.WithLabelValues(msg.Opcode().String()).Inc()
	return nil
}

// Disconnect closes the current connection. It is a normal closure: no
// EventError is published, only EventClosed. Calling it while
// disconnected or connecting does nothing.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	c := m.current
	if c == nil {
		m.mu.Unlock()
		return
	}
	c.closing.Store(true)
	m.current = nil
	m.setState(StateDisconnected)
	m.mu.Unlock()

	m.logger.Info("Disconnecting", zap.String("session", c.id))
	if err := c.conn.Close(); err != nil {
		m.logger.Debug("Close returned error", zap.String("session", c.id), zap.Error(err))
	}
}

// Wait blocks until the reader of the last connection has published
// EventClosed, or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	last := m.last
	m.mu.Unlock()

	if last == nil {
		return nil
	}
	select {
	case <-last.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discard waits for the reader of c to exit and empties the event channel.
func (m *Manager) discard(ctx context.Context, c *connection) error {
	for {
		select {
		case ev := <-m.events:
			m.logStale(ev)
		case <-c.done:
			for {
				select {
				case ev := <-m.events:
					m.logStale(ev)
				default:
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) logStale(ev Event) {
	m.logger.Debug("Discarded stale event",
		zap.String("session", ev.Session),
		zap.Stringer("kind", ev.Kind),
	)
}

func (m *Manager) readLoop(c *connection, logger *zap.Logger) {
	defer close(c.done)

	for {
		data, err := c.conn.Read(context.Background())
		if err != nil {
			m.finish(c, logger, err)
			return
		}
		m.metrics.FramesReceived.Inc()
		m.events <- Event{Kind: EventFrame, Session: c.id, Frame: data}
	}
}

// finish publishes the terminal events of c.
func (m *Manager) finish(c *connection, logger *zap.Logger, err error) {
	m.mu.Lock()
	if m.current == c {
		m.current = nil
		m.setState(StateDisconnected)
	}
	m.mu.Unlock()

	_ = c.conn.Close()

	if c.closing.Load() || errors.Is(err, io.EOF) {
		logger.Info("Connection closed")
	} else {
		logger.Error("Connection lost", zap.Error(err))
		m.events <- Event{
			Kind:    EventError,
			Session: c.id,
			Err:     &ConnectionError{Op: "read", Addr: c.conn.RemoteAddr(), Err: err},
		}
	}
	m.events <- Event{Kind: EventClosed, Session: c.id}
}

// released reports whether c stopped being the current connection.
func (m *Manager) released(c *connection) bool {
	if c.closing.Load() {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != c
}

func (m *Manager) resetState() {
	m.mu.Lock()
	m.setState(StateDisconnected)
	m.mu.Unlock()
}

// setState must be called with mu held.
func (m *Manager) setState(s State) {
	m.state = s
	m.metrics.ConnectionState.Set(float64(s))
}
