package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errConnectionClosed = errors.New("connection closed")

type outbound struct {
	messageType int
	data        []byte
}

// Connection represents a single WebSocket connection. Only the write pump writes
// to Conn; relays queue frames on send.
type Connection struct {
	ID     string
	Conn   *websocket.Conn
	bearer string

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once
	busy      atomic.Bool
}

func newConnection(conn *websocket.Conn, bearer string) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		Conn:   conn,
		bearer: bearer,
		send:   make(chan outbound, 64),
		done:   make(chan struct{}),
	}
}

// SendJSON queues v as a text frame, waiting while the queue is full.
func (c *Connection) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(outbound{messageType: websocket.TextMessage, data: data})
}

// CloseWith queues a close frame; the write pump exits after sending it.
func (c *Connection) CloseWith(code int, text string) {
	_ = c.enqueue(outbound{messageType: websocket.CloseMessage, data: websocket.FormatCloseMessage(code, text)})
}

func (c *Connection) enqueue(msg outbound) error {
	select {
	case <-c.done:
		return errConnectionClosed
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errConnectionClosed
	}
}

// Close closes the underlying connection once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}
