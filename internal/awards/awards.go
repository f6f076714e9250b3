// Package awards implements Component B: pure computation of end-of-game
// accolades over a finished session's collected answers.
package awards

import (
	"sort"
	"time"
)

// AnswerView is the slice of an Answer joined to its Question that the
// evaluator needs; callers build this from the entity store.
type AnswerView struct {
	PlayerID   uint
	IsCorrect  bool
	TimeTaken  float64
	TimeLimit  float64
	Difficulty string
}

// PlayerView is the slice of Player state the evaluator needs.
type PlayerView struct {
	ID        uint
	Name      string
	MaxStreak int
	JoinedAt  time.Time
}

// Award is the computed result for one award key.
type Award struct {
	PlayerID    uint
	DisplayName string
	Emoji       string
	NumericValue float64
	Description string
}

const (
	KeyFastest    = "fastest"
	KeyAccurate   = "accurate"
	KeyClutch     = "clutch"
	KeyStrategist = "strategist"
	KeyLucky      = "lucky"
)

type playerStats struct {
	view           PlayerView
	total          int
	correct        int
	sumCorrectTime float64
	clutchCount    int
	luckyCount     int
}

// Evaluate computes the award_key -> Award mapping for a finished session.
// Deterministic given its inputs: ties broken by the award's own metric,
// then by player.JoinedAt ascending (earliest wins).
func Evaluate(players []PlayerView, answers []AnswerView) map[string]Award {
	stats := make(map[uint]*playerStats, len(players))
	for _, p := range players {
		stats[p.ID] = &playerStats{view: p}
	}

	for _, a := range answers {
		s, ok := stats[a.PlayerID]
		if !ok {
			continue
		}
		s.total++
		if !a.IsCorrect {
			continue
		}
		s.correct++
		s.sumCorrectTime += a.TimeTaken
		if a.TimeTaken >= a.TimeLimit-3 {
			s.clutchCount++
		}
		if (a.Difficulty == "hard" || a.Difficulty == "very_hard") && a.TimeTaken > 15 {
			s.luckyCount++
		}
	}

	result := make(map[string]Award)

	if w, v, ok := winner(stats, func(s *playerStats) (bool, float64) {
		if s.correct < 1 {
			return false, 0
		}
		mean := s.sumCorrectTime / float64(s.correct)
		return mean < 3.0, -mean
	}); ok {
		result[KeyFastest] = award(w, "⚡", -v, "fastest average answer time")
	}

	if w, v, ok := winner(stats, func(s *playerStats) (bool, float64) {
		if s.total < 1 {
			return false, 0
		}
		accuracy := float64(s.correct) / float64(s.total)
		return accuracy >= 0.85, accuracy
	}); ok {
		result[KeyAccurate] = award(w, "🎯", v, "highest accuracy")
	}

	if w, v, ok := winner(stats, func(s *playerStats) (bool, float64) {
		return s.clutchCount >= 2, float64(s.clutchCount)
	}); ok {
		result[KeyClutch] = award(w, "🔥", v, "most clutch answers")
	}

	if w, v, ok := winner(stats, func(s *playerStats) (bool, float64) {
		return s.view.MaxStreak >= 5, float64(s.view.MaxStreak)
	}); ok {
		result[KeyStrategist] = award(w, "🧠", v, "longest answer streak")
	}

	if w, v, ok := winner(stats, func(s *playerStats) (bool, float64) {
		return s.luckyCount >= 2, float64(s.luckyCount)
	}); ok {
		result[KeyLucky] = award(w, "🎲", v, "most lucky guesses")
	}

	return result
}

// winner finds the eligible player maximizing metric, breaking ties by
// earliest JoinedAt. eligible returns (isEligible, metric).
func winner(stats map[uint]*playerStats, eligible func(*playerStats) (bool, float64)) (*playerStats, float64, bool) {
	var candidates []*playerStats
	values := make(map[uint]float64)
	for _, s := range stats {
		ok, v := eligible(s)
		if !ok {
			continue
		}
		candidates = append(candidates, s)
		values[s.view.ID] = v
	}
	if len(candidates) == 0 {
		return nil, 0, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		vi, vj := values[candidates[i].view.ID], values[candidates[j].view.ID]
		if vi != vj {
			return vi > vj
		}
		return candidates[i].view.JoinedAt.Before(candidates[j].view.JoinedAt)
	})
	best := candidates[0]
	return best, values[best.view.ID], true
}

func award(s *playerStats, emoji string, value float64, description string) Award {
	return Award{
		PlayerID:     s.view.ID,
		DisplayName:  s.view.Name,
		Emoji:        emoji,
		NumericValue: value,
		Description:  description,
	}
}
