// Package timeline holds the pure program-timeline arithmetic: which month
// of the 12-month plan a case is in, how far along it is, and when follow-up
// ends. No store access, no error paths.
package timeline

import (
	"math"
	"time"
)

// ProgramMonths is the fixed length of the follow-up program.
const ProgramMonths = 12

// CurrentMonth computes which month of the plan the case is in:
// floor(days since release / 30) + 1, clamped to [1, 12].
// A zero release date returns 0, the "no active timeline" sentinel.
func CurrentMonth(releaseDate, today time.Time) int {
	if releaseDate.IsZero() {
		return 0
	}
	days := int(today.Sub(releaseDate).Hours() / 24)
	month := days/30 + 1
	if month < 1 {
		return 1
	}
	if month > ProgramMonths {
		return ProgramMonths
	}
	return month
}

// ProgressPercentage converts a current month into percent complete,
// capped at 100.
func ProgressPercentage(currentMonth int) int {
	pct := int(math.Round(float64(currentMonth) / ProgramMonths * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// DefaultFollowupEnd is release date + 365 days. Callers apply it only when
// the case has no end date yet, so manual overrides are never clobbered.
func DefaultFollowupEnd(releaseDate time.Time) time.Time {
	return releaseDate.AddDate(0, 0, 365)
}
