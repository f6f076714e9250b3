package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	"github.com/pdtechteam/quiz-generator/internal/domain/repository"
	"github.com/pdtechteam/quiz-generator/internal/generation"
	"github.com/pdtechteam/quiz-generator/internal/handler/dto"
)

// QuizHandler serves the quiz-authoring REST surface (spec.md §6).
type QuizHandler struct {
	quizRepo  repository.QuizRepository
	generator *generation.Adapter
}

func NewQuizHandler(quizRepo repository.QuizRepository, generator *generation.Adapter) *QuizHandler {
	return &QuizHandler{quizRepo: quizRepo, generator: generator}
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizRepo.ListQuizzes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quizzes"})
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req dto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz := &entity.Quiz{
		Title:                  req.Title,
		Topic:                  req.Topic,
		Description:            req.Description,
		ImageURL:               req.ImageURL,
		DefaultTimePerQuestion: req.DefaultTimePerQuestion,
	}
	if quiz.DefaultTimePerQuestion == 0 {
		quiz.DefaultTimePerQuestion = 20
	}

	if err := h.quizRepo.CreateQuiz(quiz); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quiz"})
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, _ := c.Get("quizID")
	quiz, err := h.quizRepo.GetQuiz(quizID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz, "theme_image": quiz.ThemeImage()})
}

func (h *QuizHandler) GetQuestions(c *gin.Context) {
	quizID, _ := c.Get("quizID")
	questions, err := h.quizRepo.GetQuestions(quizID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load questions"})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// GetPreview returns the quiz's questions without the correct-choice flag,
// suitable for a pre-game preview screen.
func (h *QuizHandler) GetPreview(c *gin.Context) {
	quizID, _ := c.Get("quizID")
	questions, err := h.quizRepo.GetQuestions(quizID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load questions"})
		return
	}

	preview := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		choices := make([]gin.H, 0, len(q.Choices))
		for _, ch := range q.Choices {
			choices = append(choices, gin.H{"id": ch.ID, "text": ch.Text, "order": ch.Order})
		}
		preview = append(preview, gin.H{
			"uuid":       q.UUID,
			"order":      q.Order,
			"text":       q.Text,
			"difficulty": q.Difficulty,
			"image_url":  q.ImageURL,
			"choices":    choices,
		})
	}
	c.JSON(http.StatusOK, preview)
}

// GenerateQuiz creates a quiz, requests a model-generated question set from
// Component E and attaches it in one call. Any partially created quiz is
// removed if generation or attachment fails (spec.md §7).
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	var req dto.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timePerQuestion := req.TimePerQuestion
	if timePerQuestion == 0 {
		timePerQuestion = 20
	}

	quiz := &entity.Quiz{
		Title:                  req.Topic,
		Topic:                  req.Topic,
		Description:            req.Description,
		DefaultTimePerQuestion: timePerQuestion,
	}
	if err := h.quizRepo.CreateQuiz(quiz); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quiz"})
		return
	}

	candidates, err := h.generator.Generate(context.Background(), generation.Request{
		Topic:       req.Topic,
		Count:       req.Count,
		Curve:       difficultyCurve(req.Count),
		PlayerCount: req.PlayerCount,
	})
	if err != nil {
		h.quizRepo.DeleteQuiz(quiz.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "generation_failed", "error": err.Error()})
		return
	}

	questions := make([]entity.Question, 0, len(candidates))
	for i, cand := range candidates {
		choices := make([]entity.Choice, 0, len(cand.Choices))
		for j, ch := range cand.Choices {
			choices = append(choices, entity.Choice{
				Text:      ch.Text,
				IsCorrect: j == cand.CorrectIndex,
				Order:     j,
			})
		}
		questions = append(questions, entity.Question{
			QuizID:           quiz.ID,
			Order:            i + 1,
			Text:             cand.Text,
			Difficulty:       cand.Difficulty,
			Explanation:      cand.Explanation,
			ImageURL:         cand.ImageURL,
			GeneratedByModel: true,
			Choices:          choices,
		})
	}

	if err := h.quizRepo.AttachQuestions(quiz.ID, questions); err != nil {
		h.quizRepo.DeleteQuiz(quiz.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"kind": "generation_failed", "error": err.Error()})
		return
	}

	full, err := h.quizRepo.GetQuiz(quiz.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quiz generated but could not be reloaded"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": full, "theme_image": full.ThemeImage()})
}

// difficultyCurve cycles a generated quiz through easy, medium, medium,
// hard and very_hard, weighting it toward medium; "fun" is never used.
func difficultyCurve(count int) []string {
	bands := []string{entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyMedium, entity.DifficultyHard, entity.DifficultyVeryHard}
	curve := make([]string, count)
	for i := range curve {
		curve[i] = bands[i%len(bands)]
	}
	return curve
}
