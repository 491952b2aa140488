// Package testserver provides a scripted game server for tests. It accepts
// one client at a time over WebSocket (gorilla/websocket) or length-prefixed
// TCP, decodes what the client sends and lets the test push frames back.
package testserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omochice/bobba-client/internal/transport/tcp"
	"github.com/omochice/bobba-client/pkg/protocol"
)

// Transports accepted by New.
const (
	TransportWebSocket = "ws"
	TransportTCP       = "tcp"
)

// peer is the server side of one client connection.
type peer interface {
	write(data []byte) error
	read() ([]byte, error)
	closeNormal() error
	drop() error
}

// Server is a single-client game server.
type Server struct {
	transport  string
	listener   net.Listener
	httpServer *http.Server
	upgrader   websocket.Upgrader

	received  chan *protocol.Frame
	connected chan struct{}

	mu   sync.Mutex
	peer peer
	wg   sync.WaitGroup
}

// New creates a server for the given transport. Call Start before use.
func New(transport string) *Server {
	return &Server{
		transport: transport,
		received:  make(chan *protocol.Frame, 64),
		connected: make(chan struct{}, 1),
	}
}

// Start listens on a random loopback port.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start test server: %w", err)
	}
	s.listener = listener

	switch s.transport {
	case TransportWebSocket:
		mux := http.NewServeMux()
		mux.HandleFunc("/", s.handleWebSocket)
		s.httpServer = &http.Server{Handler: mux}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.httpServer.Serve(listener)
		}()
	case TransportTCP:
		s.wg.Add(1)
		go s.acceptTCPConnections()
	default:
		listener.Close()
		return fmt.Errorf("unknown transport %q", s.transport)
	}
	return nil
}

// Stop drops the client and shuts the listener down.
func (s *Server) Stop() {
	s.mu.Lock()
	p := s.peer
	s.peer = nil
	s.mu.Unlock()
	if p != nil {
		_ = p.drop()
	}

	if s.httpServer != nil {
		_ = s.httpServer.Close()
	} else if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	n, _ := strconv.Atoi(port)
	return n
}

// WaitClient blocks until a client connected.
func (s *Server) WaitClient(ctx context.Context) error {
	select {
	case <-s.connected:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Received returns decoded frames sent by the client, in order.
func (s *Server) Received() <-chan *protocol.Frame {
	return s.received
}

// Next returns the next frame sent by the client.
func (s *Server) Next(ctx context.Context) (*protocol.Frame, error) {
	select {
	case f := <-s.received:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send encodes a frame and sends it to the client.
func (s *Server) Send(op protocol.Opcode, fields ...protocol.Field) error {
	data, err := protocol.Encode(op, fields)
	if err != nil {
		return err
	}
	return s.SendRaw(data)
}

// SendRaw sends data as one frame, without encoding.
func (s *Server) SendRaw(data []byte) error {
	p, err := s.currentPeer()
	if err != nil {
		return err
	}
	return p.write(data)
}

// CloseClient closes the client connection normally.
func (s *Server) CloseClient() error {
	p, err := s.takePeer()
	if err != nil {
		return err
	}
	return p.closeNormal()
}

// DropClient tears the client connection down without a closing handshake.
func (s *Server) DropClient() error {
	p, err := s.takePeer()
	if err != nil {
		return err
	}
	return p.drop()
}

func (s *Server) currentPeer() (peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return nil, fmt.Errorf("no client connected")
	}
	return s.peer, nil
}

func (s *Server) takePeer() (peer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return nil, fmt.Errorf("no client connected")
	}
	p := s.peer
	s.peer = nil
	return p, nil
}

func (s *Server) attach(p peer) {
	s.mu.Lock()
	s.peer = p
	s.mu.Unlock()

	select {
	case s.connected <- struct{}{}:
	default:
	}

	s.readLoop(p)
}

// readLoop decodes client frames until the connection ends.
func (s *Server) readLoop(p peer) {
	for {
		data, err := p.read()
		if err != nil {
			s.mu.Lock()
			if s.peer == p {
				s.peer = nil
			}
			s.mu.Unlock()
			return
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			continue
		}
		s.received <- frame
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.attach(&wsPeer{conn: conn})
}

func (s *Server) acceptTCPConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.attach(&tcpPeer{raw: conn, conn: tcp.NewConn(conn)})
		}()
	}
}

type wsPeer struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (p *wsPeer) write(data []byte) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (p *wsPeer) read() ([]byte, error) {
	_, data, err := p.conn.ReadMessage()
	return data, err
}

func (p *wsPeer) closeNormal() error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (p *wsPeer) drop() error {
	return p.conn.NetConn().Close()
}

type tcpPeer struct {
	raw  net.Conn
	conn *tcp.Conn
}

func (p *tcpPeer) write(data []byte) error {
	return p.conn.Write(context.Background(), data)
}

func (p *tcpPeer) read() ([]byte, error) {
	return p.conn.Read(context.Background())
}

func (p *tcpPeer) closeNormal() error {
	return p.conn.Close()
}

// drop leaves a truncated length prefix on the wire so the client sees an
// unexpected EOF rather than a clean one.
func (p *tcpPeer) drop() error {
	_, _ = p.raw.Write([]byte{0, 0})
	return p.raw.Close()
}
