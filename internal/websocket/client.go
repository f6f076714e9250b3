package websocket

import (
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
	"github.com/pdtechteam/quiz-generator/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client bridges one gorilla/websocket connection to a session.Runtime. It
// implements session.ClientHandle so the session package can address it
// without importing this package.
type Client struct {
	hub         *session.Hub
	sessionCode string
	conn        *websocket.Conn
	send        chan []byte
	closed      atomic.Bool
}

// NewClient wraps an upgraded connection for the given session code.
func NewClient(hub *session.Hub, sessionCode string, conn *websocket.Conn) *Client {
	return &Client{
		hub:         hub,
		sessionCode: sessionCode,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
	}
}

// Send implements session.ClientHandle. Marshals the event and enqueues it;
// a full buffer means the client is too far behind to keep up and is
// dropped rather than let one slow reader stall the whole broadcast.
func (c *Client) Send(event session.Event) {
	if c.closed.Load() {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[websocket] failed to marshal event %q: %v", event.Type, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("[websocket] send buffer full for session %s, dropping client", c.sessionCode)
		c.RemoteClose()
	}
}

// RemoteClose implements session.ClientHandle: force-closes the
// connection, which unblocks readPump and triggers cleanup.
func (c *Client) RemoteClose() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// Serve runs the read/write pumps and blocks until the connection ends. The
// caller (the HTTP handler that upgraded the connection) should call Serve
// directly; it owns the connection's lifetime.
func (c *Client) Serve() {
	if err := c.hub.Attach(c.sessionCode, c); err != nil {
		payload, _ := json.Marshal(session.NewEvent("error", map[string]interface{}{
			"kind":    apperrors.Kind(err),
			"message": "session not found",
		}))
		c.conn.WriteMessage(websocket.TextMessage, payload)
		c.conn.Close()
		return
	}
	defer func() {
		c.hub.Detach(c.sessionCode, c)
		c.conn.Close()
	}()

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
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
				log.Printf("[websocket] read error in session %s: %v", c.sessionCode, err)
			}
			return
		}

		cmd, err := decodeCommand(raw, c)
		if err != nil {
			c.Send(session.NewEvent("error", map[string]interface{}{
				"kind":    apperrors.Kind(err),
				"message": err.Error(),
			}))
			continue
		}

		if ok := c.hub.Dispatch(c.sessionCode, cmd); !ok {
			c.Send(session.NewEvent("error", map[string]interface{}{
				"kind":    apperrors.Kind(apperrors.ErrNoSuchSession),
				"message": "session not found",
			}))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
