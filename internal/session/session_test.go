package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/omochice/bobba-client/internal/client"
	"github.com/omochice/bobba-client/internal/config"
	"github.com/omochice/bobba-client/internal/room"
	"github.com/omochice/bobba-client/internal/session"
	"github.com/omochice/bobba-client/internal/testserver"
	"github.com/omochice/bobba-client/pkg/protocol"
)

const timeout = 2 * time.Second

// fakeConn scripts connection events and records sends.
type fakeConn struct {
	events chan client.Event

	mu          sync.Mutex
	sent        []protocol.Opcode
	connected   bool
	disconnects int
	connectErr  error
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan client.Event, 64)}
}

func (c *fakeConn) Connect(ctx context.Context, host string, port int, secure bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeConn) Send(msg *protocol.OutgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.sent = append(c.sent, msg.Opcode())
	}
	return nil
}

func (c *fakeConn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.disconnects++
}

func (c *fakeConn) Events() <-chan client.Event {
	return c.events
}

func (c *fakeConn) Sent() []protocol.Opcode {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Opcode, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) frame(t *testing.T, op protocol.Opcode, fields ...protocol.Field) {
	t.Helper()
	data, err := protocol.Encode(op, fields)
	require.NoError(t, err)
	c.events <- client.Event{Kind: client.EventFrame, Frame: data}
}

func testConfig() *config.Config {
	cfg := config.LoadDefaultConfig()
	cfg.Login.Username = "Bob"
	cfg.Login.Look = "hd-180-1"
	return cfg
}

func loginOK() []protocol.Field {
	return []protocol.Field{protocol.Int(7), protocol.String("Bob"), protocol.String("hd-180-1"), protocol.String("hi")}
}

func mapData() []protocol.Field {
	return []protocol.Field{
		protocol.Int(2), protocol.Int(1), protocol.Int(0), protocol.Int(0),
		protocol.Int(0), protocol.Int(0),
	}
}

func TestNew_RejectsNil(t *testing.T) {
	_, err := session.New(nil, newFakeConn(), nil)
	assert.Error(t, err)

	_, err = session.New(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestSession_LoginSequenceIsOrdered(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	conn.events <- client.Event{Kind: client.EventOpened}
	conn.frame(t, protocol.ServerLoginOK, loginOK()...)
	conn.frame(t, protocol.ServerRoomModelInfo, protocol.String("model_a"), protocol.Int(1))
	conn.frame(t, protocol.ServerMapData, mapData()...)
	conn.frame(t, protocol.ServerItemRemove, protocol.Int(42))
	conn.events <- client.Event{Kind: client.EventClosed}

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []protocol.Opcode{
		protocol.ClientLogin,
		protocol.ClientRequestInventoryItems,
		protocol.ClientRequestCatalogueIndex,
		protocol.ClientRequestNavigatorGoToRoom,
		protocol.ClientRequestHeightMap,
		protocol.ClientRequestRoomData,
	}, conn.Sent())
	assert.Equal(t, 1, conn.disconnects)
	assert.Nil(t, s.Room(), "room is unloaded on close")
	_, ok := s.Users().Current()
	assert.False(t, ok, "user is cleared on close")
}

func TestSession_HandleUserData(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	s.HandleUserData(7, "Bob", "hd-180-1", "hi")

	assert.Equal(t, []protocol.Opcode{
		protocol.ClientRequestInventoryItems,
		protocol.ClientRequestCatalogueIndex,
		protocol.ClientRequestNavigatorGoToRoom,
	}, conn.Sent())

	user, ok := s.Users().Current()
	require.True(t, ok)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "Bob", user.Name)
	assert.Equal(t, "hd-180-1", user.Look)
	assert.Equal(t, "hi", user.Motto)
}

func TestSession_HandleUserDataInRoomSendsNothing(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	conn.frame(t, protocol.ServerMapData, mapData()...)
	conn.frame(t, protocol.ServerLoginOK, loginOK()...)
	conn.events <- client.Event{Kind: client.EventClosed}
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, []protocol.Opcode{protocol.ClientRequestRoomData}, conn.Sent())
}

func TestSession_HeightMapReplacesRoom(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)

	s.HandleHeightMap(mustModel(t))
	first := s.Room()
	first.AddFloorItem(roomItem(1))

	s.HandleHeightMap(mustModel(t))
	second := s.Room()

	assert.NotSame(t, first, second)
	assert.True(t, first.Disposed())
	assert.Empty(t, second.FloorItems())
}

func TestSession_SendWhileDisconnected(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)

	assert.NoError(t, s.Say("hello"))
	assert.NoError(t, s.Wave())
	assert.Empty(t, conn.Sent())
}

func TestSession_Helpers(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Say("hello"))
	require.NoError(t, s.Walk(1, 2))
	require.NoError(t, s.Wave())
	require.NoError(t, s.Interact(42))
	require.NoError(t, s.Purchase(3))

	assert.Equal(t, []protocol.Opcode{
		protocol.ClientRequestChat,
		protocol.ClientRequestMovement,
		protocol.ClientRequestWave,
		protocol.ClientRequestItemInteract,
		protocol.ClientRequestCataloguePurchase,
	}, conn.Sent())
}

func TestSession_BadFramesDoNotStopRun(t *testing.T) {
	conn := newFakeConn()
	core, logs := observer.New(zapcore.DebugLevel)
	s, err := session.New(testConfig(), conn, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	conn.events <- client.Event{Kind: client.EventFrame, Frame: []byte{0xff}}
	conn.frame(t, protocol.Opcode(999))
	conn.frame(t, protocol.ServerLoginOK, protocol.String("not an int"))
	conn.frame(t, protocol.ServerLoginOK, loginOK()...)
	conn.events <- client.Event{Kind: client.EventClosed}

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 1, logs.FilterMessage("Dropped malformed frame").Len())
	assert.Equal(t, 1, logs.FilterMessage("No handler for opcode").Len())
	assert.Equal(t, 1, logs.FilterMessage("Handler failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Logged in").Len())
}

func TestSession_RunReturnsConnectionError(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)

	lost := errors.New("connection reset")
	conn.events <- client.Event{Kind: client.EventError, Err: lost}
	conn.events <- client.Event{Kind: client.EventClosed}

	assert.ErrorIs(t, s.Run(context.Background()), lost)
}

func TestSession_RunStopsOnContext(t *testing.T) {
	conn := newFakeConn()
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, 1, conn.disconnects)
}

func TestSession_StartFailure(t *testing.T) {
	conn := newFakeConn()
	conn.connectErr = &client.ConnectionError{Op: "dial", Addr: "localhost:8080", Err: errors.New("refused")}
	s, err := session.New(testConfig(), conn, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Start(context.Background()), client.ErrConnection)
}

func TestSession_AgainstServer(t *testing.T) {
	srv := testserver.New(testserver.TransportWebSocket)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := testConfig()
	cfg.Server.Host = srv.Host()
	cfg.Server.Port = srv.Port()

	s, err := session.New(cfg, client.NewManager(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	next := func() *protocol.Frame {
		t.Helper()
		f, err := srv.Next(ctx)
		require.NoError(t, err)
		return f
	}

	login := next()
	require.Equal(t, protocol.ClientLogin, login.Opcode)
	username, err := login.NextString()
	require.NoError(t, err)
	assert.Equal(t, "Bob", username)

	require.NoError(t, srv.Send(protocol.ServerLoginOK, loginOK()...))
	assert.Equal(t, protocol.ClientRequestInventoryItems, next().Opcode)
	assert.Equal(t, protocol.ClientRequestCatalogueIndex, next().Opcode)
	goToRoom := next()
	assert.Equal(t, protocol.ClientRequestNavigatorGoToRoom, goToRoom.Opcode)
	roomID, err := goToRoom.NextInt()
	require.NoError(t, err)
	assert.Equal(t, session.HomeRoomID, roomID)

	require.NoError(t, srv.Send(protocol.ServerRoomModelInfo, protocol.String("model_a"), protocol.Int(1)))
	assert.Equal(t, protocol.ClientRequestHeightMap, next().Opcode)

	require.NoError(t, srv.Send(protocol.ServerMapData, mapData()...))
	assert.Equal(t, protocol.ClientRequestRoomData, next().Opcode)

	require.NoError(t, srv.CloseClient())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after the server closed the connection")
	}
}

func TestSession_RestartAfterCancelledRun(t *testing.T) {
	srv := testserver.New(testserver.TransportWebSocket)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := testConfig()
	cfg.Server.Host = srv.Host()
	cfg.Server.Port = srv.Port()
	manager := client.NewManager()

	first, err := session.New(cfg, manager, nil)
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, srv.WaitClient(ctx))

	runCtx, stop := context.WithCancel(ctx)
	stop()
	require.ErrorIs(t, first.Run(runCtx), context.Canceled)

	second, err := session.New(cfg, manager, nil)
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))

	done := make(chan error, 1)
	go func() { done <- second.Run(ctx) }()

	require.NoError(t, srv.WaitClient(ctx))

	require.NoError(t, srv.Send(protocol.ServerLoginOK, loginOK()...))
	for {
		f, err := srv.Next(ctx)
		require.NoError(t, err, "second session stopped before handling login data")
		if f.Opcode == protocol.ClientRequestNavigatorGoToRoom {
			break
		}
	}
	assert.True(t, manager.IsConnected())

	require.NoError(t, srv.CloseClient())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("Run did not return after the server closed the connection")
	}
}

func mustModel(t *testing.T) *room.Model {
	t.Helper()
	m, err := room.NewModel(2, 1, 0, 0, []int{0, 0})
	require.NoError(t, err)
	return m
}

func roomItem(id int) room.FloorItem {
	return room.FloorItem{ID: id, BaseID: 1}
}
