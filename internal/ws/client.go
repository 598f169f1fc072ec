package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"playearn/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 64
)

// Client is one connected admin dashboard.
type Client struct {
	AdminID string
	Conn    *websocket.Conn
	Send    chan []byte
	Hub     *Hub
	Done    chan struct{}

	log *slog.Logger
}

func NewClient(adminID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		AdminID: adminID,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Hub:     hub,
		Done:    make(chan struct{}),
		log:     logger.With("component", "ws_client", "admin_id", adminID),
	}
}

// Run registers the client and blocks until the connection drops.
func (c *Client) Run() {
	if !c.Hub.Register(c) {
		_ = c.Conn.Close()
		close(c.Done)
		return
	}
	go c.writePump()
	c.queue(Message{Type: MsgReady, At: time.Now().UTC()})

	c.readPump()
}

func (c *Client) queue(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		c.log.Error("marshal message", "error", err)
		return
	}
	if !c.Hub.sendTo(c, b) {
		c.log.Debug("message dropped", "type", m.Type)
	}
}

// read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(1024)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", "error", err)
			}
			return
		}

		var in InboundMessage
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		if in.Type == MsgPing {
			c.queue(Message{Type: MsgPong, At: time.Now().UTC()})
		}
	}
}

// write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
