package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Difficulty values recognized by scoring and generation. Any other string
// is treated as unknown and defaults to the "medium" multiplier.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyHard      = "hard"
	DifficultyVeryHard  = "very_hard"
	DifficultyFun       = "fun"
)

// Question is one item of a Quiz. Owns exactly four Choice rows.
type Question struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UUID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"uuid"`
	QuizID          uint      `gorm:"not null;index" json:"quiz_id"`
	Order           int       `gorm:"not null" json:"order"`
	Text            string    `gorm:"size:200;not null" json:"text"`
	Difficulty      string    `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	Explanation     string    `gorm:"size:300;not null;default:''" json:"explanation"`
	ImageURL        string    `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	TimeLimitSec    int       `gorm:"not null;default:0" json:"time_limit_sec"`
	GeneratedByModel bool     `gorm:"not null;default:false" json:"generated_by_model"`
	Choices         []Choice  `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// EffectiveTimeLimit resolves the per-question override against the quiz
// default: 0 means "inherit".
func (q *Question) EffectiveTimeLimit(quizDefault int) int {
	if q.TimeLimitSec > 0 {
		return q.TimeLimitSec
	}
	return quizDefault
}

// Choice is one of a Question's four answer options.
type Choice struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:200;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
	Order      int    `gorm:"not null" json:"order"`
}

func (Choice) TableName() string {
	return "choices"
}

const (
	ChoicesPerQuestion  = 4
	MaxChoiceTextLen    = 40
	MaxStoredChoiceText = 200
)

// JSONStringSlice is a generic JSONB-backed string slice implementing
// sql.Scanner and driver.Valuer. No model in this package has a field of
// this type.
type JSONStringSlice []string

func (s *JSONStringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = JSONStringSlice{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = JSONStringSlice{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

func (s JSONStringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}
