package game

import "time"

// score implements the award formula: 1000 * (1 - 0.5*elapsed/deadline),
// rounded to the nearest integer, floored at 0. A timeout or incorrect
// answer always scores 0. The caller passes the elapsed time as
// measured; an elapsed time past the deadline scores 0 here, the same
// as a timeout.
func score(correct bool, elapsed time.Duration, deadline time.Duration) int {
	if !correct || deadline <= 0 {
		return 0
	}
	ratio := float64(elapsed) / float64(deadline)
	if ratio > 1 {
		return 0
	}
	points := 1000.0 * (1.0 - 0.5*ratio)
	if points < 0 {
		points = 0
	}
	return roundHalfAwayFromZero(points)
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}
