package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
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

	DefaultSendBuffer = 32
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	joined string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, buffer),
	}
}

// Serve runs the write pump in the background and the read pump until the
// connection ends.
func (c *Client) Serve() {
	go c.WritePump()
	c.ReadPump()
}

// enqueue reports false when the queue is closed or full.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) reply(event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		return
	}
	c.enqueue(frame)
}

// handle processes one inbound frame. It returns false when the connection
// should be closed.
func (c *Client) handle(raw []byte) bool {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(EventError, fields{"message": "invalid message"})
		return true
	}

	switch msg.Event {
	case EventJoin:
		var id string
		if err := json.Unmarshal(msg.Data, &id); err != nil || id == "" {
			c.reply(EventError, fields{"message": "join requires a user id"})
			return true
		}
		if id != c.userID {
			c.reply(EventError, fields{"message": "cannot join as another user"})
			return true
		}
		if c.joined == "" {
			if err := c.hub.Register(id, c); err != nil {
				return false
			}
			c.joined = id
		}
		c.reply(EventJoined, fields{"userId": id})

	case EventPing:
		c.reply(EventPong, nil)

	default:
		c.reply(EventError, fields{"message": "unknown event " + msg.Event})
	}
	return true
}

// fields is the payload shape of control replies.
type fields = map[string]string

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		if c.joined != "" {
			c.hub.Unregister(c.joined, c)
		} else {
			c.closeSend()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", c.userID).Warn("WebSocket read failed")
			}
			return
		}
		if !c.handle(raw) {
			return
		}
	}
}

// WritePump pumps queued frames to the websocket connection, one frame per
// message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
