package scoring

import "testing"

func TestPoints_WrongAnswerIsZero(t *testing.T) {
	if got := Points(false, 1, 20, 5, "hard"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestPoints_LateAnswerFloorsAtBase(t *testing.T) {
	got := Points(true, 25, 20, 0, "medium")
	if got != 1000 {
		t.Fatalf("expected 1000, got %d", got)
	}
}

func TestPoints_S1Scenario(t *testing.T) {
	cases := []struct {
		name                string
		timeTaken, timeLimit float64
		streak              int
		difficulty          string
		want                int
	}{
		{"alice q1", 2, 20, 0, "medium", 1450},
		{"bob q1", 5, 20, 0, "medium", 1375},
		{"carol q1", 18, 20, 0, "medium", 1050},
		{"any q2 streak1 hard", 10, 20, 1, "hard", 1755},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Points(true, c.timeTaken, c.timeLimit, c.streak, c.difficulty)
			if got != c.want {
				t.Fatalf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestPoints_MonotoneInTimeTaken(t *testing.T) {
	fast := Points(true, 1, 20, 0, "medium")
	slow := Points(true, 10, 20, 0, "medium")
	if !(fast >= slow) {
		t.Fatalf("expected fast >= slow, got fast=%d slow=%d", fast, slow)
	}
}

func TestPoints_MonotoneInStreak(t *testing.T) {
	low := Points(true, 5, 20, 0, "medium")
	high := Points(true, 5, 20, 5, "medium")
	if !(high >= low) {
		t.Fatalf("expected high >= low, got high=%d low=%d", high, low)
	}
}

func TestPoints_UnknownDifficultyDefaultsToMedium(t *testing.T) {
	got := Points(true, 10, 20, 0, "impossible")
	want := Points(true, 10, 20, 0, "medium")
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}
