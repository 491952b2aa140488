package ws_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omochice/bobba-client/internal/transport"
	"github.com/omochice/bobba-client/internal/transport/ws"
	"github.com/omochice/bobba-client/pkg/protocol"
)

var upgrader = websocket.Upgrader{}

// serve starts a WebSocket server running handler and returns a dialed Conn.
func serve(t *testing.T, handler func(*websocket.Conn)) transport.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer c.Close()
		handler(c)
	}))
	t.Cleanup(server.Close)

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("failed to split address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	d := &ws.Dialer{Timeout: time.Second}
	conn, err := d.Dial(context.Background(), host, port, false)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConn_ImplementsInterface(t *testing.T) {
	var _ transport.Conn = (*ws.Conn)(nil)
	var _ transport.Dialer = (*ws.Dialer)(nil)
}

func TestConn_Read(t *testing.T) {
	conn := serve(t, func(c *websocket.Conn) {
		c.WriteMessage(websocket.BinaryMessage, []byte("binary message"))
		c.WriteMessage(websocket.TextMessage, []byte("text message"))
		c.ReadMessage()
	})

	for _, want := range []string{"binary message", "text message"} {
		data, err := conn.Read(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != want {
			t.Errorf("Read() = %q, want %q", string(data), want)
		}
	}
}

func TestConn_ReadFrameTooLarge(t *testing.T) {
	conn := serve(t, func(c *websocket.Conn) {
		c.WriteMessage(websocket.BinaryMessage, make([]byte, protocol.MaxFrameSize+1))
		c.ReadMessage()
	})

	_, err := conn.Read(context.Background())
	if !errors.Is(err, ws.ErrFrameTooLarge) {
		t.Errorf("Read() error = %v, want %v", err, ws.ErrFrameTooLarge)
	}
}

func TestConn_ReadFragmentedMessage(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{name: "within limit", size: 3 * 4096},
		{name: "above limit", size: protocol.MaxFrameSize + 1, wantErr: ws.ErrFrameTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := serve(t, func(c *websocket.Conn) {
				w, err := c.NextWriter(websocket.BinaryMessage)
				if err != nil {
					return
				}
				chunk := make([]byte, 1024)
				for written := 0; written < tt.size; written += len(chunk) {
					if _, err := w.Write(chunk[:min(len(chunk), tt.size-written)]); err != nil {
						return
					}
				}
				w.Close()
				c.ReadMessage()
			})

			data, err := conn.Read(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) != tt.size {
				t.Errorf("Read() returned %d bytes, want %d", len(data), tt.size)
			}
		})
	}
}

func TestConn_ReadAnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	conn := serve(t, func(c *websocket.Conn) {
		c.SetPongHandler(func(data string) error {
			pong <- data
			return nil
		})
		c.WriteControl(websocket.PingMessage, []byte("are you there"), time.Now().Add(time.Second))
		c.WriteMessage(websocket.BinaryMessage, []byte("after ping"))
		c.ReadMessage()
	})

	data, err := conn.Read(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "after ping" {
		t.Errorf("Read() = %q, want %q", string(data), "after ping")
	}

	select {
	case got := <-pong:
		if got != "are you there" {
			t.Errorf("pong payload = %q, want %q", got, "are you there")
		}
	case <-time.After(time.Second):
		t.Error("server did not receive a pong")
	}
}

func TestConn_ReadNormalClose(t *testing.T) {
	conn := serve(t, func(c *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.ReadMessage()
	})

	_, err := conn.Read(context.Background())
	if err != io.EOF {
		t.Errorf("Read() error = %v, want io.EOF", err)
	}
}

func TestConn_ReadAbnormalClose(t *testing.T) {
	conn := serve(t, func(c *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "crash")
		c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.ReadMessage()
	})

	_, err := conn.Read(context.Background())
	if err == nil || err == io.EOF {
		t.Errorf("Read() error = %v, want abnormal closure error", err)
	}
}

func TestConn_Write(t *testing.T) {
	received := make(chan []byte, 1)
	conn := serve(t, func(c *websocket.Conn) {
		mt, data, err := c.ReadMessage()
		if err != nil {
			t.Errorf("failed to read: %v", err)
			return
		}
		if mt != websocket.BinaryMessage {
			t.Errorf("message type = %d, want binary", mt)
		}
		received <- data
	})

	if err := conn.Write(context.Background(), []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case data := <-received:
		if string(data) != "hello" {
			t.Errorf("server received %q, want %q", string(data), "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("server did not receive the message")
	}
}

func TestConn_Close(t *testing.T) {
	closeCode := make(chan int, 1)
	conn := serve(t, func(c *websocket.Conn) {
		_, _, err := c.ReadMessage()
		if ce, ok := err.(*websocket.CloseError); ok {
			closeCode <- ce.Code
		}
	})

	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	select {
	case code := <-closeCode:
		if code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d, want %d", code, websocket.CloseNormalClosure)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not observe a close frame")
	}
}

func TestDialer_URL(t *testing.T) {
	tests := []struct {
		name   string
		dialer ws.Dialer
		secure bool
		want   string
	}{
		{name: "plain", want: "ws://localhost:8080/"},
		{name: "secure", secure: true, want: "wss://localhost:8080/"},
		{name: "path", dialer: ws.Dialer{Path: "/game"}, want: "ws://localhost:8080/game"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialer.URL("localhost", 8080, tt.secure); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDialer_DialRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	d := &ws.Dialer{Timeout: time.Second}
	if _, err := d.Dial(context.Background(), "127.0.0.1", port, false); err == nil {
		t.Error("Dial() to closed port returned nil error")
	}
}
