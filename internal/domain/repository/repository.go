// Package repository defines the entity-store contract (Component C). Any
// durable store satisfying these operations is acceptable; the atomicity
// requirements of spec.md §4.3 apply to every multi-row operation.
package repository

import (
	"time"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
)

// QuizRepository covers quiz authoring and question attachment.
type QuizRepository interface {
	CreateQuiz(quiz *entity.Quiz) error
	GetQuiz(id uint) (*entity.Quiz, error)
	ListQuizzes() ([]entity.Quiz, error)
	// AttachQuestions writes question_count and all four choices per
	// question as one transactional unit. Fails if any question lacks
	// exactly four choices, has zero or more than one correct choice, or
	// has duplicate choice text within the question.
	AttachQuestions(quizID uint, questions []entity.Question) error
	GetQuestions(quizID uint) ([]entity.Question, error)
	GetQuestion(id uint) (*entity.Question, error)
	GetQuestionByUUID(quizID uint, questionUUID string) (*entity.Question, error)
	// DeleteQuiz removes a quiz and its questions/choices. Used to roll
	// back a quiz row left behind by a failed generation (spec.md §7).
	DeleteQuiz(id uint) error
}

// SessionRepository covers GameSession/Player/Answer persistence.
type SessionRepository interface {
	// CreateSession allocates a 4-digit code not currently held by a
	// non-finished session; up to 100 attempts then ErrCodeExhausted.
	CreateSession(quizID uint) (*entity.GameSession, error)
	GetSessionByCode(code string) (*entity.GameSession, error)
	SetState(sessionID uint, newState string) error
	AdvanceQuestion(sessionID uint) error
	SetHost(sessionID, playerID uint) error
	ClearHost(sessionID uint) error

	// GetOrCreatePlayer returns the existing (session, name) row with
	// connected set true and last_seen refreshed, or inserts a new row.
	GetOrCreatePlayer(sessionID uint, name string) (*entity.Player, bool, error)
	GetPlayer(id uint) (*entity.Player, error)
	SetPlayerConnected(playerID uint, connected bool) error
	TouchLastSeen(playerID uint) error
	CountConnectedPlayers(sessionID uint) (int, error)
	Leaderboard(sessionID uint) ([]entity.Player, error)
	DisconnectedPlayers(sessionID uint) ([]entity.Player, error)
	// MarkStaleDisconnected flips connected=false for every player in the
	// session whose last_seen is older than cutoff, and returns them.
	// Used by the runtime's periodic heartbeat scan (spec.md §4.7, §5).
	MarkStaleDisconnected(sessionID uint, cutoff time.Time) ([]entity.Player, error)

	// RecordAnswer computes is_correct from the choice, computes points via
	// the scoring package using the player's streak before the write, and
	// atomically inserts the Answer and updates the player's score/streak.
	// Fails with ErrAlreadyAnswered on duplicate (player, question).
	RecordAnswer(player *entity.Player, question *entity.Question, choiceID uint, timeTaken float64, effectiveTimeLimit float64) (*entity.Answer, error)
	CountAnswersForQuestion(sessionID uint, questionID uint) (int, error)
	AnswersForSession(sessionID uint) ([]entity.Answer, error)
	AnswersByPlayer(playerID uint) ([]entity.Answer, error)
}
