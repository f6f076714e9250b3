package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/repository"
)

// AnswerHandler serves read-only answer history (spec.md §6).
type AnswerHandler struct {
	sessionRepo repository.SessionRepository
}

func NewAnswerHandler(sessionRepo repository.SessionRepository) *AnswerHandler {
	return &AnswerHandler{sessionRepo: sessionRepo}
}

func (h *AnswerHandler) BySession(c *gin.Context) {
	code := c.Query("session_code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_code is required"})
		return
	}
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	answers, err := h.sessionRepo.AnswersForSession(gs.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load answers"})
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (h *AnswerHandler) ByPlayer(c *gin.Context) {
	playerIDStr := c.Query("player_id")
	playerID, err := strconv.ParseUint(playerIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_id is required"})
		return
	}
	answers, err := h.sessionRepo.AnswersByPlayer(uint(playerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load answers"})
		return
	}
	c.JSON(http.StatusOK, answers)
}
