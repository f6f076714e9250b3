package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/repository"
	"github.com/pdtechteam/quiz-generator/internal/handler/dto"
	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
	"github.com/pdtechteam/quiz-generator/internal/session"
	"github.com/pdtechteam/quiz-generator/pkg/qrcode"
)

// SessionHandler serves the session lifecycle and read-model REST surface
// (spec.md §6). Session creation hands the new row to the hub, which owns
// the Runtime goroutine for the remainder of the session's life.
type SessionHandler struct {
	sessionRepo repository.SessionRepository
	quizRepo    repository.QuizRepository
	hub         *session.Hub
	publicBase  string
}

func NewSessionHandler(sessionRepo repository.SessionRepository, quizRepo repository.QuizRepository, hub *session.Hub, publicBase string) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, quizRepo: quizRepo, hub: hub, publicBase: publicBase}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizRepo.GetQuiz(req.Quiz)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}

	gs, err := h.sessionRepo.CreateSession(quiz.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.hub.StartSession(gs, quiz)
	c.JSON(http.StatusCreated, gs)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	code := c.Param("code")
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gs)
}

func (h *SessionHandler) GetState(c *gin.Context) {
	code := c.Param("code")
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": gs.State, "current_question": gs.CurrentQuestion})
}

func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	code := c.Param("code")
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	questions, err := h.quizRepo.GetQuestions(gs.QuizID)
	if err != nil || gs.CurrentQuestion >= len(questions) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no current question"})
		return
	}
	c.JSON(http.StatusOK, questions[gs.CurrentQuestion])
}

func (h *SessionHandler) GetLeaderboard(c *gin.Context) {
	code := c.Param("code")
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	leaderboard, err := h.sessionRepo.Leaderboard(gs.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, leaderboard)
}

func (h *SessionHandler) GetDisconnectedPlayers(c *gin.Context) {
	code := c.Param("code")
	gs, err := h.sessionRepo.GetSessionByCode(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	players, err := h.sessionRepo.DisconnectedPlayers(gs.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load disconnected players"})
		return
	}
	c.JSON(http.StatusOK, players)
}

// GetQRCode renders a PNG QR code pointing at the session's join URL, an
// enrichment beyond the base protocol for projecting a scannable code.
func (h *SessionHandler) GetQRCode(c *gin.Context) {
	code := c.Param("code")
	if _, err := h.sessionRepo.GetSessionByCode(code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	png, err := qrcode.Encode(h.publicBase + "/join/" + code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.Kind(apperrors.ErrInternal)})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
