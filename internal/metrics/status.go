package metrics

import (
	"time"

	"okrpulse/internal/okr"
)

// pacingFactor dampens the linear expected-progress curve so that
// steady pacing reads as slightly ahead of a strict done-by-deadline
// line, reducing false at-risk flags early in a quarter.
const pacingFactor = 0.8

// ExpectedProgress computes the benchmark percentage for an objective
// whose window runs from start to end, as of now. Before the window it
// is 0, after it 100.
func ExpectedProgress(start, end, now time.Time) float64 {
	if !now.After(start) {
		return 0
	}
	if !now.Before(end) {
		return 100
	}
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	elapsed := float64(now.Sub(start)) / float64(total)
	return elapsed * 100 * pacingFactor
}

// Classify maps actual progress against the expected benchmark.
// Fully achieved objectives are on track regardless of timing.
func Classify(actual int, expected float64) okr.Status {
	if actual >= 100 {
		return okr.StatusOnTrack
	}
	diff := float64(actual) - expected
	switch {
	case diff >= -10:
		return okr.StatusOnTrack
	case diff >= -30:
		return okr.StatusAtRisk
	default:
		return okr.StatusOffTrack
	}
}

// StatusFor classifies an objective's health from its window and
// actual progress as of now.
func StatusFor(actual int, start, end, now time.Time) okr.Status {
	return Classify(actual, ExpectedProgress(start, end, now))
}
