package entity

import (
	"strings"
	"time"
)

// Quiz is an authored set of questions. Immutable once questions are
// attached, for as long as any session referencing it is not finished.
type Quiz struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	Title                  string     `gorm:"size:100;not null" json:"title"`
	Topic                  string     `gorm:"size:100;not null" json:"topic"`
	Description            string     `gorm:"size:500;not null;default:''" json:"description"`
	ImageURL               string     `gorm:"size:500;not null;default:''" json:"image_url,omitempty"`
	QuestionCount          int        `gorm:"not null;default:0" json:"question_count"`
	DefaultTimePerQuestion int        `gorm:"not null;default:20" json:"default_time_per_question"`
	Questions              []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Time-per-question bounds from the data model.
const (
	MinTimePerQuestion = 10
	MaxTimePerQuestion = 60
)

// themeImages maps a topic keyword to a static fallback image served when a
// quiz has no ImageURL of its own. Order matters: the first matching
// category wins.
var themeImages = []struct {
	keywords []string
	path     string
}{
	{[]string{"film", "movie", "actor", "director", "cinema"}, "/static/images/themes/films/default.jpg"},
	{[]string{"animal", "zoo", "wildlife", "fauna"}, "/static/images/themes/animals/default.jpg"},
	{[]string{"geography", "country", "city", "capital"}, "/static/images/themes/geography/default.jpg"},
	{[]string{"music", "song", "band", "singer"}, "/static/images/themes/music/default.jpg"},
	{[]string{"history", "war", "century", "era"}, "/static/images/themes/history/default.jpg"},
}

const defaultThemeImage = "/static/images/themes/default.jpg"

// ThemeImage returns the quiz's display image, falling back to a
// topic-keyword-matched static image when ImageURL is blank.
func (q Quiz) ThemeImage() string {
	if q.ImageURL != "" {
		return q.ImageURL
	}
	topic := strings.ToLower(q.Topic)
	for _, theme := range themeImages {
		for _, kw := range theme.keywords {
			if strings.Contains(topic, kw) {
				return theme.path
			}
		}
	}
	return defaultThemeImage
}
