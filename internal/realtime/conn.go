package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound buffer per connection; a client that can't drain this
	// fast enough is dropped.
	sendBufferSize = 256
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrSendBufferFull     = errors.New("send buffer full")
)

// Conn is the write side of one live client connection, as the registry
// sees it. Implementations must be safe for concurrent use.
type Conn interface {
	Send(event ServerEvent) error
	Close() error
}

// ClientConn adds the read side consumed by the session loop.
type ClientConn interface {
	Conn
	ReadMessage() ([]byte, error)
	CloseWithStatus(code int, reason string) error
}

// WSConn adapts a gorilla websocket connection. Outbound events are
// queued on a buffered channel drained by a single write pump, so
// delivery order per connection matches enqueue order and a stalled
// peer never blocks the caller.
type WSConn struct {
	conn *websocket.Conn
	send chan []byte

	once        sync.Once
	done        chan struct{}
	closeCode   int
	closeReason string
}

// NewWSConn wraps an upgraded connection and starts its write pump.
func NewWSConn(conn *websocket.Conn) *WSConn {
	c := &WSConn{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.writePump()
	return c
}

// Send marshals the event and queues it for delivery. A full buffer
// means the peer stopped draining; the connection is dropped rather
// than letting it stall fan-out to others.
func (c *WSConn) Send(event ServerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClientDisconnected
	case c.send <- data:
		return nil
	default:
		c.CloseWithStatus(websocket.CloseGoingAway, "send buffer overflow")
		return ErrSendBufferFull
	}
}

// ReadMessage blocks for the next inbound text frame.
func (c *WSConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *WSConn) Close() error {
	return c.CloseWithStatus(websocket.CloseNormalClosure, "")
}

// CloseWithStatus shuts the connection down at most once, letting the
// write pump emit a close frame with the given code first.
func (c *WSConn) CloseWithStatus(code int, reason string) error {
	c.once.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
	return nil
}

func (c *WSConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return
		}
	}
}
