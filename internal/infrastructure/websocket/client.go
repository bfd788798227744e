package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"talentlink/pkg/logger"
)

// Client is one live WebSocket connection bound to an authenticated user.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// trySend queues payload without blocking. It reports false when the send
// buffer is full; sends to an already closed client are silently dropped.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
	c.mu.Unlock()
}

// ReadPump reads frames from the connection and hands them to handle.
// Closing the connection is the cancellation boundary: the deferred
// unregister stops all future event delivery synchronously.
func (c *Client) ReadPump(m *Manager, handle func(*Client, []byte)) {
	defer func() {
		m.Unregister(c)
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Unexpected close from %s: %v", c.UserID, err)
			}
			break
		}

		handle(c, payload)
	}
}

// WritePump drains the send buffer onto the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("Write to %s failed: %v", c.UserID, err)
			return
		}
	}
}
