package postgres

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
	"github.com/pdtechteam/quiz-generator/internal/scoring"
)

// SessionRepo implements repository.SessionRepository.
type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const maxCodeAttempts = 100

// CreateSession allocates a 4-digit code not currently held by a
// non-finished session, per spec.md §4.3.
func (r *SessionRepo) CreateSession(quizID uint) (*entity.GameSession, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := fmt.Sprintf("%04d", rand.Intn(10000))

		var count int64
		if err := r.db.Model(&entity.GameSession{}).
			Where("code = ? AND state != ?", code, entity.SessionFinished).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		session := &entity.GameSession{
			Code:   code,
			QuizID: quizID,
			State:  entity.SessionWaiting,
		}
		if err := r.db.Create(session).Error; err != nil {
			continue
		}
		return session, nil
	}
	return nil, apperrors.ErrCodeExhausted
}

func (r *SessionRepo) GetSessionByCode(code string) (*entity.GameSession, error) {
	var session entity.GameSession
	if err := r.db.Where("code = ?", code).Order("created_at desc").First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoSuchSession
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepo) SetState(sessionID uint, newState string) error {
	updates := map[string]interface{}{"state": newState}
	now := time.Now()
	switch newState {
	case entity.SessionRunning:
		updates["started_at"] = now
	case entity.SessionFinished:
		updates["finished_at"] = now
	}
	return r.db.Model(&entity.GameSession{}).Where("id = ?", sessionID).Updates(updates).Error
}

func (r *SessionRepo) AdvanceQuestion(sessionID uint) error {
	return r.db.Model(&entity.GameSession{}).
		Where("id = ?", sessionID).
		Update("current_question", gorm.Expr("current_question + 1")).Error
}

// SetHost succeeds only if the session currently has no host.
func (r *SessionRepo) SetHost(sessionID, playerID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var session entity.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if session.HostPlayerID != nil {
			return apperrors.ErrAlreadyHasHost
		}
		if err := tx.Model(&entity.GameSession{}).Where("id = ?", sessionID).Update("host_player_id", playerID).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Player{}).Where("id = ?", playerID).Update("is_host", true).Error
	})
}

// ClearHost vacates the session's host role, allowing a subsequent
// become_host to succeed for any connected player.
func (r *SessionRepo) ClearHost(sessionID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var session entity.GameSession
		if err := tx.First(&session, sessionID).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.GameSession{}).Where("id = ?", sessionID).Update("host_player_id", nil).Error; err != nil {
			return err
		}
		if session.HostPlayerID != nil {
			return tx.Model(&entity.Player{}).Where("id = ?", *session.HostPlayerID).Update("is_host", false).Error
		}
		return nil
	})
}

// GetOrCreatePlayer returns the existing (session, name) row, refreshed,
// or inserts a new one. The bool result is true when a new row was created.
func (r *SessionRepo) GetOrCreatePlayer(sessionID uint, name string) (*entity.Player, bool, error) {
	var player entity.Player
	err := r.db.Where("session_id = ? AND name = ?", sessionID, name).First(&player).Error
	if err == nil {
		now := time.Now()
		if updErr := r.db.Model(&player).Updates(map[string]interface{}{
			"connected": true,
			"last_seen": now,
		}).Error; updErr != nil {
			return nil, false, updErr
		}
		player.Connected = true
		player.LastSeen = now
		return &player, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	player = entity.Player{
		SessionID: sessionID,
		Name:      name,
		Connected: true,
		LastSeen:  now,
		JoinedAt:  now,
	}
	if err := r.db.Create(&player).Error; err != nil {
		return nil, false, err
	}
	return &player, true, nil
}

func (r *SessionRepo) GetPlayer(id uint) (*entity.Player, error) {
	var player entity.Player
	if err := r.db.First(&player, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (r *SessionRepo) SetPlayerConnected(playerID uint, connected bool) error {
	return r.db.Model(&entity.Player{}).Where("id = ?", playerID).Updates(map[string]interface{}{
		"connected": connected,
		"last_seen": time.Now(),
	}).Error
}

func (r *SessionRepo) TouchLastSeen(playerID uint) error {
	return r.db.Model(&entity.Player{}).Where("id = ?", playerID).Update("last_seen", time.Now()).Error
}

func (r *SessionRepo) CountConnectedPlayers(sessionID uint) (int, error) {
	var count int64
	err := r.db.Model(&entity.Player{}).Where("session_id = ? AND connected = true", sessionID).Count(&count).Error
	return int(count), err
}

func (r *SessionRepo) Leaderboard(sessionID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("session_id = ?", sessionID).
		Order("score desc, joined_at asc").
		Find(&players).Error
	return players, err
}

func (r *SessionRepo) DisconnectedPlayers(sessionID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("session_id = ? AND connected = false", sessionID).Find(&players).Error
	return players, err
}

// MarkStaleDisconnected flips connected=false for every player of the
// session still marked connected but whose last_seen predates cutoff.
func (r *SessionRepo) MarkStaleDisconnected(sessionID uint, cutoff time.Time) ([]entity.Player, error) {
	var stale []entity.Player
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ? AND connected = true AND last_seen < ?", sessionID, cutoff).
			Find(&stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]uint, len(stale))
		for i, p := range stale {
			ids[i] = p.ID
		}
		return tx.Model(&entity.Player{}).Where("id IN ?", ids).Update("connected", false).Error
	})
	return stale, err
}

// RecordAnswer computes is_correct, computes points via the scoring
// package using the player's streak before the write, and atomically
// inserts the Answer row and updates the player's score/streak.
// effectiveTimeLimit is the question's resolved time limit (per-question
// override or quiz default), already computed by the caller.
func (r *SessionRepo) RecordAnswer(player *entity.Player, question *entity.Question, choiceID uint, timeTaken float64, effectiveTimeLimit float64) (*entity.Answer, error) {
	var chosen *entity.Choice
	for i := range question.Choices {
		if question.Choices[i].ID == choiceID {
			chosen = &question.Choices[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: choice %d not part of question %d", apperrors.ErrInternal, choiceID, question.ID)
	}

	var answer entity.Answer
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entity.Answer{}).
			Where("player_id = ? AND question_id = ?", player.ID, question.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.ErrAlreadyAnswered
		}

		points := scoring.Points(chosen.IsCorrect, timeTaken, effectiveTimeLimit, player.CurrentStreak, question.Difficulty)

		answer = entity.Answer{
			PlayerID:     player.ID,
			QuestionID:   question.ID,
			ChoiceID:     choiceID,
			TimeTaken:    timeTaken,
			IsCorrect:    chosen.IsCorrect,
			PointsEarned: points,
			AnsweredAt:   time.Now(),
		}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}

		newStreak := player.CurrentStreak + 1
		newMaxStreak := player.MaxStreak
		if !chosen.IsCorrect {
			newStreak = 0
		} else if newStreak > newMaxStreak {
			newMaxStreak = newStreak
		}

		updates := map[string]interface{}{
			"score":          gorm.Expr("score + ?", points),
			"current_streak": newStreak,
			"max_streak":     newMaxStreak,
		}
		return tx.Model(&entity.Player{}).Where("id = ?", player.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if answer.IsCorrect {
		player.CurrentStreak++
		if player.CurrentStreak > player.MaxStreak {
			player.MaxStreak = player.CurrentStreak
		}
	} else {
		player.CurrentStreak = 0
	}
	player.Score += answer.PointsEarned
	return &answer, nil
}

// CountAnswersForQuestion counts answers to the given question from players
// currently marked connected. A player who answered and then disconnected no
// longer counts toward "all connected players answered", so the join filters
// on players.connected rather than all rows.
func (r *SessionRepo) CountAnswersForQuestion(sessionID uint, questionID uint) (int, error) {
	var count int64
	err := r.db.Model(&entity.Answer{}).
		Joins("JOIN players ON players.id = answers.player_id").
		Where("players.session_id = ? AND answers.question_id = ? AND players.connected = ?", sessionID, questionID, true).
		Count(&count).Error
	return int(count), err
}

func (r *SessionRepo) AnswersForSession(sessionID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.
		Joins("JOIN players ON players.id = answers.player_id").
		Where("players.session_id = ?", sessionID).
		Find(&answers).Error
	return answers, err
}

func (r *SessionRepo) AnswersByPlayer(playerID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("player_id = ?", playerID).Order("answered_at asc").Find(&answers).Error
	return answers, err
}
