// Package scoring implements Component A: a pure function computing the
// points awarded for a single answer.
package scoring

import "math"

// difficultyMultiplier maps a difficulty string to its scoring multiplier.
// Unknown difficulties default to 1.0 (medium).
var difficultyMultiplier = map[string]float64{
	"easy":      0.8,
	"medium":    1.0,
	"hard":      1.3,
	"very_hard": 1.5,
	"fun":       0.5,
}

// Points computes the score for one answer. timeTaken and timeLimit are in
// seconds; currentStreakBefore is the player's streak before this answer is
// recorded. A wrong answer always scores 0.
func Points(isCorrect bool, timeTaken, timeLimit float64, currentStreakBefore int, difficulty string) int {
	if !isCorrect {
		return 0
	}

	multiplier, ok := difficultyMultiplier[difficulty]
	if !ok {
		multiplier = 1.0
	}

	speedBonus := 0.0
	if timeLimit > 0 {
		speedBonus = math.Floor((timeLimit - timeTaken) * 500 / timeLimit)
		if speedBonus < 0 {
			speedBonus = 0
		}
	}

	streakBonus := float64(currentStreakBefore) * 100

	return int(math.Floor((1000 + speedBonus + streakBonus) * multiplier))
}
