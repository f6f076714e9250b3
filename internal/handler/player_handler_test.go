package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
)

func TestPlayerHandler_CreatePlayer(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.sessions[1] = &entity.GameSession{ID: 1, Code: "4242", State: entity.SessionWaiting}
	repo.byCode["4242"] = 1

	h := NewPlayerHandler(repo)
	c, w := newTestContext(http.MethodPost, "/api/players", map[string]interface{}{
		"session_code": "4242", "name": "alice",
	})
	h.CreatePlayer(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPlayerHandler_CreatePlayer_SessionNotFound(t *testing.T) {
	repo := newFakeSessionRepo()
	h := NewPlayerHandler(repo)
	c, w := newTestContext(http.MethodPost, "/api/players", map[string]interface{}{
		"session_code": "9999", "name": "alice",
	})
	h.CreatePlayer(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPlayerHandler_BecomeHost(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.sessions[1] = &entity.GameSession{ID: 1, Code: "4242", State: entity.SessionWaiting}
	repo.players[1] = &entity.Player{ID: 1, SessionID: 1, Name: "alice"}

	h := NewPlayerHandler(repo)
	c, w := newTestContext(http.MethodPost, "/api/players/1/become_host", nil)
	c.Params = append(c.Params, gin.Param{Key: "id", Value: "1"})
	h.BecomeHost(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.sessions[1].HostPlayerID == nil || *repo.sessions[1].HostPlayerID != 1 {
		t.Fatalf("expected player 1 to become host")
	}
}

func TestPlayerHandler_Heartbeat(t *testing.T) {
	repo := newFakeSessionRepo()
	repo.players[1] = &entity.Player{ID: 1, SessionID: 1, Name: "alice"}

	h := NewPlayerHandler(repo)
	c, w := newTestContext(http.MethodPost, "/api/players/1/heartbeat", nil)
	c.Params = append(c.Params, gin.Param{Key: "id", Value: "1"})
	h.Heartbeat(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
