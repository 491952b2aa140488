// Package session drives one game session: it connects, logs in, routes
// every incoming frame to its handler and reacts to the login and room
// loading sequence.
package session

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/omochice/bobba-client/internal/client"
	"github.com/omochice/bobba-client/internal/config"
	"github.com/omochice/bobba-client/internal/dispatch"
	"github.com/omochice/bobba-client/internal/handlers"
	"github.com/omochice/bobba-client/internal/metrics"
	"github.com/omochice/bobba-client/internal/room"
	"github.com/omochice/bobba-client/internal/users"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// HomeRoomID is the room requested right after login.
const HomeRoomID = 1

// Connection is the part of client.Manager the session uses.
type Connection interface {
	Connect(ctx context.Context, host string, port int, secure bool) error
	Send(msg *protocol.OutgoingMessage) error
	Disconnect()
	Events() <-chan client.Event
}

var _ Connection = (*client.Manager)(nil)

// Session owns the game state. Everything except the send helpers runs on
// the goroutine that calls Run.
type Session struct {
	cfg        *config.Config
	conn       Connection
	users      *users.Manager
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger

	room *room.Room
}

var _ handlers.Game = (*Session)(nil)

type options struct {
	metrics *metrics.Metrics
	tracer  trace.Tracer
	users   *users.Manager
}

// Option configures a Session.
type Option func(*options)

// WithMetrics sets the metrics passed to the dispatcher.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer passed to the dispatcher.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithUsers shares a users.Manager with the caller.
func WithUsers(u *users.Manager) Option {
	return func(o *options) {
		o.users = u
	}
}

// New creates a session over conn.
func New(cfg *config.Config, conn Connection, logger *zap.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New("session: nil config")
	}
	if conn == nil {
		return nil, errors.New("session: nil connection")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.users == nil {
		o.users = users.NewManager()
	}

	s := &Session{
		cfg:    cfg,
		conn:   conn,
		users:  o.users,
		logger: logger.Named("session"),
	}

	registry, err := handlers.NewRegistry(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build handler registry")
	}
	s.dispatcher = dispatch.New(registry,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(o.metrics),
		dispatch.WithTracer(o.tracer),
	)
	return s, nil
}

// Start connects to the configured server.
func (s *Session) Start(ctx context.Context) error {
	srv := s.cfg.Server
	if err := s.conn.Connect(ctx, srv.Host, srv.Port, srv.Secure); err != nil {
		return errors.Wrap(err, "failed to start session")
	}
	return nil
}

// Run consumes connection events until the connection closes or ctx is
// done. Frames are dispatched one at a time in arrival order. It returns
// nil after a normal close and the connection error otherwise.
func (s *Session) Run(ctx context.Context) error {
	var connErr error

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()

		case ev := <-s.conn.Events():
			switch ev.Kind {
			case client.EventOpened:
				s.logger.Info("Connection opened", zap.String("session", ev.Session))
				s.send(protocol.Login(s.cfg.Login.Username, s.cfg.Login.Look))

			case client.EventFrame:
				// Failures are logged and counted by the dispatcher.
				_ = s.dispatcher.Route(ctx, ev.Frame)

			case client.EventError:
				s.logger.Error("Connection error", zap.String("session", ev.Session), zap.Error(ev.Err))
				connErr = ev.Err

			case client.EventClosed:
				s.logger.Info("Connection closed", zap.String("session", ev.Session))
				s.Stop()
				return connErr
			}
		}
	}
}

// Stop unloads the room, forgets the user and closes the connection.
func (s *Session) Stop() {
	s.unloadRoom()
	s.users.Clear()
	s.conn.Disconnect()
}

// Users returns the user tracker.
func (s *Session) Users() *users.Manager {
	return s.users
}

// Room returns the loaded room, or nil.
func (s *Session) Room() *room.Room {
	return s.room
}

// HandleUserData records the logged-in user. Outside a room it loads the
// inventory and catalogue and asks for the home room.
func (s *Session) HandleUserData(id int, name, look, motto string) {
	user := s.users.SetCurrentUser(id, name, motto, look)
	s.logger.Info("Logged in", zap.Int("id", user.ID), zap.String("name", user.Name))

	if s.room == nil {
		s.send(protocol.RequestInventoryItems())
		s.send(protocol.RequestCatalogueIndex())
		s.send(protocol.RequestNavigatorGoToRoom(HomeRoomID))
	}
}

// HandleRoomModelInfo asks for the heightmap of the room being entered.
func (s *Session) HandleRoomModelInfo(modelID string, roomID int) {
	s.logger.Debug("Entering room", zap.String("model", modelID), zap.Int("room", roomID))
	s.send(protocol.RequestHeightMap())
}

// HandleHeightMap replaces the current room and asks for its contents.
func (s *Session) HandleHeightMap(model *room.Model) {
	s.unloadRoom()
	s.room = room.New(model)
	s.logger.Info("Loaded heightmap", zap.Int("size_x", model.SizeX), zap.Int("size_y", model.SizeY))
	s.send(protocol.RequestRoomData())
}

// CurrentRoom implements handlers.Game.
func (s *Session) CurrentRoom() handlers.Room {
	if s.room == nil {
		return nil
	}
	return s.room
}

// Say sends a chat line.
func (s *Session) Say(text string) error {
	return s.conn.Send(protocol.RequestChat(text))
}

// Walk asks to move to x, y.
func (s *Session) Walk(x, y int) error {
	return s.conn.Send(protocol.RequestMovement(x, y))
}

// Wave waves.
func (s *Session) Wave() error {
	return s.conn.Send(protocol.RequestWave())
}

// Interact toggles a floor item.
func (s *Session) Interact(itemID int) error {
	return s.conn.Send(protocol.RequestItemInteract(itemID))
}

// Purchase buys a catalogue item.
func (s *Session) Purchase(itemID int) error {
	return s.conn.Send(protocol.RequestCataloguePurchase(itemID))
}

func (s *Session) unloadRoom() {
	if s.room != nil {
		s.room.Dispose()
	}
	s.room = nil
}

func (s *Session) send(msg *protocol.OutgoingMessage) {
	if err := s.conn.Send(msg); err != nil {
		s.logger.Warn("Failed to send", zap.String("message", msg.Name()), zap.Error(err))
	}
}
