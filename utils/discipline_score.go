package utils

import "math"

// CalculateDisciplineScore weighs consistency (streak) over raw volume.
func CalculateDisciplineScore(currentStreak, totalDaysStudied, sessionsCompleted int) float64 {
	streakScore := math.Pow(float64(currentStreak), 2) * 0.3
	daysScore := float64(totalDaysStudied) * 0.05
	sessionScore := float64(sessionsCompleted) * 1.0

	return streakScore + daysScore + sessionScore
}
