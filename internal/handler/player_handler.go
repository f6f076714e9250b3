package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/repository"
	"github.com/pdtechteam/quiz-generator/internal/handler/dto"
)

// PlayerHandler serves the player-facing REST surface (spec.md §6). Most
// gameplay runs over the live channel; these endpoints exist for clients
// that need a plain HTTP fallback to join or keep a presence alive.
type PlayerHandler struct {
	sessionRepo repository.SessionRepository
}

func NewPlayerHandler(sessionRepo repository.SessionRepository) *PlayerHandler {
	return &PlayerHandler{sessionRepo: sessionRepo}
}

func (h *PlayerHandler) CreatePlayer(c *gin.Context) {
	var req dto.CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gs, err := h.sessionRepo.GetSessionByCode(req.SessionCode)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	player, _, err := h.sessionRepo.GetOrCreatePlayer(gs.ID, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join session"})
		return
	}
	c.JSON(http.StatusCreated, player)
}

func (h *PlayerHandler) BecomeHost(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	player, err := h.sessionRepo.GetPlayer(uint(playerID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err := h.sessionRepo.SetHost(player.SessionID, player.ID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *PlayerHandler) Heartbeat(c *gin.Context) {
	playerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
		return
	}
	if err := h.sessionRepo.TouchLastSeen(uint(playerID)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
