package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// ClientOptions sizes a connection's buffers.
type ClientOptions struct {
	// SendBuffer is how many outbound events may queue before new ones are
	// dropped for this connection.
	SendBuffer int

	// MaxMessageSize bounds one inbound frame. SDP offers are the largest
	// thing clients send.
	MaxMessageSize int64
}

// Client is a wrapper for a single websocket connection. It implements Peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	opts ClientOptions
	log  *slog.Logger

	// send is the buffered queue drained by WritePump. It is closed exactly
	// once, under mu, and never written after that.
	mu     sync.Mutex
	send   chan *Message
	closed bool
}

// NewClient wraps conn and assigns it a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, opts ClientOptions, log *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		hub:  hub,
		conn: conn,
		id:   id,
		opts: opts,
		log:  log.With("conn", id),
		send: make(chan *Message, opts.SendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Emit queues msg without blocking. A full buffer or a closed connection
// drops the message.
func (c *Client) Emit(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and shuts the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps events from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine, which also means one connection's events reach
// the hub strictly in order.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("Connection closed unexpectedly", "err", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("Dropping malformed frame", "err", err)
			continue
		}
		c.hub.Dispatch(c.id, &msg)
	}
}

// WritePump pumps events from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Debug("Write failed", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
