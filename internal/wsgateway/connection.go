package wsgateway

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when sending to a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// ErrSendBufferFull is returned when a slow client's send buffer is full
var ErrSendBufferFull = errors.New("send buffer full")

// sendBufferSize is the number of outgoing messages queued per connection
const sendBufferSize = 256

// Connection represents a WebSocket connection with a client
type Connection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu        sync.RWMutex
	closed    bool
	lastPong  time.Time
	createdAt time.Time
}

// NewConnection creates a new WebSocket connection
func NewConnection(id string, userID string, conn *websocket.Conn) *Connection {
	now := time.Now()
	return &Connection{
		ID:        id,
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		createdAt: now,
		lastPong:  now,
	}
}

// Enqueue queues a message for the write pump without blocking
func (c *Connection) Enqueue(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendMessage marshals v and queues it
func (c *Connection) SendMessage(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Enqueue(data)
}

// SendError queues an error message
func (c *Connection) SendError(code string, message string) error {
	return c.SendMessage(ServerMessage{
		Type:    MessageTypeError,
		Code:    code,
		Message: message,
	})
}

// UpdateLastPong updates the last pong time
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// GetLastPong returns the last pong time
func (c *Connection) GetLastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}

// IsClosed reports whether Close was called
func (c *Connection) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close closes the send channel and the socket. Later calls are no-ops.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()

	if c.Conn != nil {
		c.Conn.Close()
	}
}
