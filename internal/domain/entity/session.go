package entity

import "time"

// Session states, per the §4.7 state machine.
const (
	SessionWaiting  = "waiting"
	SessionRunning  = "running"
	SessionPaused   = "paused"
	SessionFinished = "finished"
)

// GameSession is one run-through of a Quiz by a group of Players, addressed
// by a 4-digit decimal code.
type GameSession struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Code            string     `gorm:"size:4;not null;uniqueIndex:idx_session_code_live" json:"code"`
	QuizID          uint       `gorm:"not null;index" json:"quiz_id"`
	State           string     `gorm:"size:20;not null;default:'waiting'" json:"state"`
	CurrentQuestion int        `gorm:"not null;default:0" json:"current_question"`
	HostPlayerID    *uint      `json:"host_player_id,omitempty"`
	Players         []Player   `gorm:"foreignKey:SessionID" json:"players,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

func (GameSession) TableName() string {
	return "game_sessions"
}

// IsLive reports whether the session still holds its code exclusively
// (CreateSession must not allocate a code held by a non-finished session).
func (s *GameSession) IsLive() bool {
	return s.State != SessionFinished
}

// Player is one participant of a GameSession.
type Player struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    uint      `gorm:"not null;uniqueIndex:idx_session_player_name" json:"session_id"`
	Name         string    `gorm:"size:50;not null;uniqueIndex:idx_session_player_name" json:"name"`
	Score        int       `gorm:"not null;default:0" json:"score"`
	CurrentStreak int      `gorm:"not null;default:0" json:"current_streak"`
	MaxStreak    int       `gorm:"not null;default:0" json:"max_streak"`
	Connected    bool      `gorm:"not null;default:true" json:"connected"`
	IsHost       bool      `gorm:"not null;default:false" json:"is_host"`
	LastSeen     time.Time `json:"last_seen"`
	JoinedAt     time.Time `json:"joined_at"`
}

func (Player) TableName() string {
	return "players"
}

// Answer is one append-only record of a Player's response to a Question.
type Answer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlayerID     uint      `gorm:"not null;uniqueIndex:idx_player_question" json:"player_id"`
	QuestionID   uint      `gorm:"not null;uniqueIndex:idx_player_question" json:"question_id"`
	ChoiceID     uint      `gorm:"not null" json:"choice_id"`
	TimeTaken    float64   `gorm:"not null" json:"time_taken"`
	IsCorrect    bool      `gorm:"not null" json:"is_correct"`
	PointsEarned int       `gorm:"not null;default:0" json:"points_earned"`
	AnsweredAt   time.Time `json:"answered_at"`
}

func (Answer) TableName() string {
	return "answers"
}
