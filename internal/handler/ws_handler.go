package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/pdtechteam/quiz-generator/internal/session"
	wsserver "github.com/pdtechteam/quiz-generator/internal/websocket"
)

// WSHandler upgrades a live-channel request and hands the connection off
// to a websocket.Client bound to the session named in the URL.
type WSHandler struct {
	hub *session.Hub
}

func NewWSHandler(hub *session.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleConnection serves GET /ws/game/:code/, per spec.md §6.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	code, _ := c.Get("sessionCode")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session %v: %v", code, err)
		return
	}

	client := wsserver.NewClient(h.hub, code.(string), conn)
	client.Serve()
}
