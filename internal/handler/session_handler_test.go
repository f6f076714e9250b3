package handler

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	"github.com/pdtechteam/quiz-generator/internal/session"
)

// fakeSessionRepo is an in-memory stand-in for repository.SessionRepository.
type fakeSessionRepo struct {
	mu           sync.Mutex
	nextSessID   uint
	nextPlayerID uint
	sessions     map[uint]*entity.GameSession
	byCode       map[string]uint
	players      map[uint]*entity.Player
	answers      []entity.Answer
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[uint]*entity.GameSession),
		byCode:   make(map[string]uint),
		players:  make(map[uint]*entity.Player),
	}
}

func (r *fakeSessionRepo) CreateSession(quizID uint) (*entity.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSessID++
	code := fmt.Sprintf("%04d", r.nextSessID)
	gs := &entity.GameSession{ID: r.nextSessID, Code: code, QuizID: quizID, State: entity.SessionWaiting}
	r.sessions[gs.ID] = gs
	r.byCode[code] = gs.ID
	return gs, nil
}

func (r *fakeSessionRepo) GetSessionByCode(code string) (*entity.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("session %s not found", code)
	}
	return r.sessions[id], nil
}

func (r *fakeSessionRepo) SetState(sessionID uint, newState string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID].State = newState
	return nil
}

func (r *fakeSessionRepo) AdvanceQuestion(sessionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID].CurrentQuestion++
	return nil
}

func (r *fakeSessionRepo) SetHost(sessionID, playerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID].HostPlayerID = &playerID
	return nil
}

func (r *fakeSessionRepo) ClearHost(sessionID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID].HostPlayerID = nil
	return nil
}

func (r *fakeSessionRepo) GetOrCreatePlayer(sessionID uint, name string) (*entity.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.SessionID == sessionID && p.Name == name {
			return p, false, nil
		}
	}
	r.nextPlayerID++
	p := &entity.Player{ID: r.nextPlayerID, SessionID: sessionID, Name: name, Connected: true, JoinedAt: time.Now()}
	r.players[p.ID] = p
	return p, true, nil
}

func (r *fakeSessionRepo) GetPlayer(id uint) (*entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return nil, fmt.Errorf("player %d not found", id)
	}
	return p, nil
}

func (r *fakeSessionRepo) SetPlayerConnected(playerID uint, connected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		p.Connected = connected
	}
	return nil
}

func (r *fakeSessionRepo) TouchLastSeen(playerID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		p.LastSeen = time.Now()
	}
	return nil
}

func (r *fakeSessionRepo) CountConnectedPlayers(sessionID uint) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.players {
		if p.SessionID == sessionID && p.Connected {
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) Leaderboard(sessionID uint) ([]entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Player
	for _, p := range r.players {
		if p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) DisconnectedPlayers(sessionID uint) ([]entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Player
	for _, p := range r.players {
		if p.SessionID == sessionID && !p.Connected {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) MarkStaleDisconnected(sessionID uint, cutoff time.Time) ([]entity.Player, error) {
	return nil, nil
}

func (r *fakeSessionRepo) RecordAnswer(player *entity.Player, question *entity.Question, choiceID uint, timeTaken float64, effectiveTimeLimit float64) (*entity.Answer, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeSessionRepo) CountAnswersForQuestion(sessionID uint, questionID uint) (int, error) {
	return 0, nil
}

func (r *fakeSessionRepo) AnswersForSession(sessionID uint) ([]entity.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Answer
	for _, a := range r.answers {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeSessionRepo) AnswersByPlayer(playerID uint) ([]entity.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Answer
	for _, a := range r.answers {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLimiter struct{}

func (fakeLimiter) Allow(sessionCode string, playerID uint) (bool, error) { return true, nil }

func TestSessionHandler_CreateAndGetSession(t *testing.T) {
	quizRepo := newFakeQuizRepo()
	quiz := &entity.Quiz{Title: "t", Topic: "t", DefaultTimePerQuestion: 20}
	quizRepo.CreateQuiz(quiz)

	sessionRepo := newFakeSessionRepo()
	hub := session.NewHub(session.Deps{SessionRepo: sessionRepo, QuizRepo: quizRepo, Limiter: fakeLimiter{}, Config: session.DefaultConfig()})
	h := NewSessionHandler(sessionRepo, quizRepo, hub, "http://localhost:8080")

	c, w := newTestContext(http.MethodPost, "/api/sessions", map[string]interface{}{"quiz": quiz.ID})
	h.CreateSession(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	c2, w2 := newTestContext(http.MethodGet, "/api/sessions/0001", nil)
	c2.Params = append(c2.Params, gin.Param{Key: "code", Value: "0001"})
	h.GetSession(c2)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestSessionHandler_GetSession_NotFound(t *testing.T) {
	quizRepo := newFakeQuizRepo()
	sessionRepo := newFakeSessionRepo()
	hub := session.NewHub(session.Deps{SessionRepo: sessionRepo, QuizRepo: quizRepo, Limiter: fakeLimiter{}, Config: session.DefaultConfig()})
	h := NewSessionHandler(sessionRepo, quizRepo, hub, "http://localhost:8080")

	c, w := newTestContext(http.MethodGet, "/api/sessions/9999", nil)
	c.Params = append(c.Params, gin.Param{Key: "code", Value: "9999"})
	h.GetSession(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
