package timeclock

import (
	"math"
	"time"
)

// RoundMinutes converts an elapsed duration to whole minutes, rounding to the
// nearest minute with halves going up (30m30s -> 31).
func RoundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// roundHours converts minutes to hours with one decimal place.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
