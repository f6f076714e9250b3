package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	"github.com/pdtechteam/quiz-generator/internal/generation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeQuizRepo is an in-memory stand-in for repository.QuizRepository.
type fakeQuizRepo struct {
	mu        sync.Mutex
	nextID    uint
	quizzes   map[uint]*entity.Quiz
	deletions []uint
	failAttach bool
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: make(map[uint]*entity.Quiz)}
}

func (r *fakeQuizRepo) CreateQuiz(quiz *entity.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	quiz.ID = r.nextID
	cp := *quiz
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r *fakeQuizRepo) GetQuiz(id uint) (*entity.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[id]
	if !ok {
		return nil, fmt.Errorf("quiz %d not found", id)
	}
	cp := *q
	return &cp, nil
}

func (r *fakeQuizRepo) ListQuizzes() ([]entity.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Quiz, 0, len(r.quizzes))
	for _, q := range r.quizzes {
		out = append(out, *q)
	}
	return out, nil
}

func (r *fakeQuizRepo) AttachQuestions(quizID uint, questions []entity.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAttach {
		return fmt.Errorf("attach failed")
	}
	q, ok := r.quizzes[quizID]
	if !ok {
		return fmt.Errorf("quiz %d not found", quizID)
	}
	q.Questions = questions
	q.QuestionCount = len(questions)
	return nil
}

func (r *fakeQuizRepo) GetQuestions(quizID uint) ([]entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[quizID]
	if !ok {
		return nil, fmt.Errorf("quiz %d not found", quizID)
	}
	return q.Questions, nil
}

func (r *fakeQuizRepo) GetQuestion(id uint) (*entity.Question, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeQuizRepo) GetQuestionByUUID(quizID uint, questionUUID string) (*entity.Question, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeQuizRepo) DeleteQuiz(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletions = append(r.deletions, id)
	delete(r.quizzes, id)
	return nil
}

// fakeCache is an in-memory stand-in for generation.CacheStore; always
// misses so tests exercise the live generation path.
type fakeCache struct{}

func (fakeCache) GetJSON(key string, dest interface{}) error {
	return fmt.Errorf("cache miss")
}

func (fakeCache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return nil
}

func newTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestQuizHandler_CreateAndGetQuiz(t *testing.T) {
	repo := newFakeQuizRepo()
	h := NewQuizHandler(repo, nil)

	c, w := newTestContext(http.MethodPost, "/api/quizzes", map[string]interface{}{
		"title": "Geography", "topic": "geography",
	})
	h.CreateQuiz(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created entity.Quiz
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.DefaultTimePerQuestion != 20 {
		t.Fatalf("expected default time per question 20, got %d", created.DefaultTimePerQuestion)
	}

	c2, w2 := newTestContext(http.MethodGet, "/api/quizzes/1", nil)
	c2.Set("quizID", created.ID)
	h.GetQuiz(c2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w2.Code)
	}
}

func TestQuizHandler_GetQuiz_NotFound(t *testing.T) {
	repo := newFakeQuizRepo()
	h := NewQuizHandler(repo, nil)

	c, w := newTestContext(http.MethodGet, "/api/quizzes/99", nil)
	c.Set("quizID", uint(99))
	h.GetQuiz(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func candidateJSON(count int) string {
	candidates := make([]generation.Candidate, count)
	for i := range candidates {
		candidates[i] = generation.Candidate{
			Text: fmt.Sprintf("question %d", i),
			Choices: []generation.CandidateChoice{
				{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"},
			},
			CorrectIndex: 0,
			Difficulty:   entity.DifficultyMedium,
		}
	}
	b, _ := json.Marshal(candidates)
	return string(b)
}

func newFakeGenerationServer(t *testing.T, count int, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": candidateJSON(count)}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestQuizHandler_GenerateQuiz_Success(t *testing.T) {
	server := newFakeGenerationServer(t, 2, false)
	defer server.Close()

	repo := newFakeQuizRepo()
	generator := generation.NewAdapter(fakeCache{}, "test-key", server.URL, "test-model")
	h := NewQuizHandler(repo, generator)

	c, w := newTestContext(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"topic": "history", "count": 2, "player_count": 4,
	})
	h.GenerateQuiz(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.deletions) != 0 {
		t.Fatalf("expected no quiz deletions on success, got %v", repo.deletions)
	}
}

func TestQuizHandler_GenerateQuiz_DeletesQuizOnGenerationFailure(t *testing.T) {
	server := newFakeGenerationServer(t, 2, true)
	defer server.Close()

	repo := newFakeQuizRepo()
	generator := generation.NewAdapter(fakeCache{}, "test-key", server.URL, "test-model")
	h := NewQuizHandler(repo, generator)

	c, w := newTestContext(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"topic": "history", "count": 2, "player_count": 4,
	})
	h.GenerateQuiz(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.deletions) != 1 {
		t.Fatalf("expected the partially created quiz to be deleted, got deletions=%v", repo.deletions)
	}
}

func TestQuizHandler_GenerateQuiz_DeletesQuizOnAttachFailure(t *testing.T) {
	server := newFakeGenerationServer(t, 2, false)
	defer server.Close()

	repo := newFakeQuizRepo()
	repo.failAttach = true
	generator := generation.NewAdapter(fakeCache{}, "test-key", server.URL, "test-model")
	h := NewQuizHandler(repo, generator)

	c, w := newTestContext(http.MethodPost, "/api/quizzes/generate", map[string]interface{}{
		"topic": "history", "count": 2, "player_count": 4,
	})
	h.GenerateQuiz(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if len(repo.deletions) != 1 {
		t.Fatalf("expected the partially created quiz to be deleted, got deletions=%v", repo.deletions)
	}
}
