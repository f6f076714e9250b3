package awards

import (
	"testing"
	"time"
)

func TestEvaluate_S6Scenario(t *testing.T) {
	now := time.Unix(0, 0)
	players := []PlayerView{
		{ID: 1, Name: "X", MaxStreak: 6, JoinedAt: now},
		{ID: 2, Name: "Y", MaxStreak: 1, JoinedAt: now.Add(time.Second)},
	}

	var answers []AnswerView
	// X: 8 correct answers averaging 2.4s.
	for i := 0; i < 8; i++ {
		answers = append(answers, AnswerView{PlayerID: 1, IsCorrect: true, TimeTaken: 2.4, TimeLimit: 20, Difficulty: "medium"})
	}
	// X: 2 more answers wrong, for a 10-question session.
	answers = append(answers,
		AnswerView{PlayerID: 1, IsCorrect: false, TimeTaken: 5, TimeLimit: 20, Difficulty: "medium"},
		AnswerView{PlayerID: 1, IsCorrect: false, TimeTaken: 5, TimeLimit: 20, Difficulty: "medium"},
	)
	// 3 of X's answers were on hard/very_hard with time_taken > 15 (lucky).
	answers = append(answers,
		AnswerView{PlayerID: 1, IsCorrect: true, TimeTaken: 16, TimeLimit: 20, Difficulty: "hard"},
		AnswerView{PlayerID: 1, IsCorrect: true, TimeTaken: 17, TimeLimit: 20, Difficulty: "very_hard"},
		AnswerView{PlayerID: 1, IsCorrect: true, TimeTaken: 18, TimeLimit: 20, Difficulty: "hard"},
	)

	// Y answers just enough to not qualify for anything.
	answers = append(answers, AnswerView{PlayerID: 2, IsCorrect: false, TimeTaken: 10, TimeLimit: 20, Difficulty: "medium"})

	result := Evaluate(players, answers)

	if a, ok := result[KeyFastest]; !ok || a.PlayerID != 1 {
		t.Fatalf("expected X to win fastest, got %+v ok=%v", a, ok)
	}
	if a, ok := result[KeyStrategist]; !ok || a.PlayerID != 1 {
		t.Fatalf("expected X to win strategist, got %+v ok=%v", a, ok)
	}
	if a, ok := result[KeyLucky]; !ok || a.PlayerID != 1 {
		t.Fatalf("expected X to win lucky, got %+v ok=%v", a, ok)
	}
	if _, ok := result[KeyAccurate]; ok {
		t.Fatalf("expected no accurate award, got one")
	}
}

func TestEvaluate_NoEligiblePlayersOmitsKey(t *testing.T) {
	players := []PlayerView{{ID: 1, Name: "Solo", MaxStreak: 0, JoinedAt: time.Unix(0, 0)}}
	answers := []AnswerView{{PlayerID: 1, IsCorrect: false, TimeTaken: 10, TimeLimit: 20, Difficulty: "medium"}}

	result := Evaluate(players, answers)
	if len(result) != 0 {
		t.Fatalf("expected no awards, got %+v", result)
	}
}

func TestEvaluate_TieBrokenByJoinedAt(t *testing.T) {
	early := time.Unix(0, 0)
	late := early.Add(time.Minute)
	players := []PlayerView{
		{ID: 1, Name: "Early", MaxStreak: 5, JoinedAt: early},
		{ID: 2, Name: "Late", MaxStreak: 5, JoinedAt: late},
	}
	result := Evaluate(players, nil)
	a, ok := result[KeyStrategist]
	if !ok {
		t.Fatalf("expected strategist award")
	}
	if a.PlayerID != 1 {
		t.Fatalf("expected earliest-joined player to win tie, got player %d", a.PlayerID)
	}
}
