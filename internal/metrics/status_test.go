package metrics

import (
	"math"
	"testing"
	"time"

	"okrpulse/internal/okr"
)

var (
	windowStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = windowStart.AddDate(0, 0, 90)
)

func TestExpectedProgress(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"before window", windowStart.AddDate(0, 0, -5), 0},
		{"at start", windowStart, 0},
		{"midpoint", windowStart.AddDate(0, 0, 45), 40},
		{"at end", windowEnd, 100},
		{"after window", windowEnd.AddDate(0, 0, 5), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpectedProgress(windowStart, windowEnd, tc.now)
			if math.Abs(got-tc.want) > 0.01 {
				t.Fatalf("ExpectedProgress = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpectedProgressDegenerateWindow(t *testing.T) {
	at := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := ExpectedProgress(at, at, at.Add(time.Hour)); got != 100 {
		t.Fatalf("ExpectedProgress on zero window = %v, want 100", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		actual   int
		expected float64
		want     okr.Status
	}{
		{"slightly ahead", 45, 40, okr.StatusOnTrack},
		{"exactly at tolerance", 30, 40, okr.StatusOnTrack},
		{"behind", 30, 53.33, okr.StatusAtRisk},
		{"at risk boundary", 10, 40, okr.StatusAtRisk},
		{"far behind", 10, 71.11, okr.StatusOffTrack},
		{"achieved late", 100, 100, okr.StatusOnTrack},
		{"over-achieved", 120, 100, okr.StatusOnTrack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.actual, tc.expected); got != tc.want {
				t.Fatalf("Classify(%d, %v) = %q, want %q", tc.actual, tc.expected, got, tc.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	// 60 of 90 days elapsed, expected ~53.
	now := windowStart.AddDate(0, 0, 60)
	if got := StatusFor(30, windowStart, windowEnd, now); got != okr.StatusAtRisk {
		t.Fatalf("StatusFor(30) = %q, want at_risk", got)
	}
	// 80 of 90 days elapsed, expected ~71.
	now = windowStart.AddDate(0, 0, 80)
	if got := StatusFor(10, windowStart, windowEnd, now); got != okr.StatusOffTrack {
		t.Fatalf("StatusFor(10) = %q, want off_track", got)
	}
	if got := StatusFor(100, windowStart, windowEnd, now); got != okr.StatusOnTrack {
		t.Fatalf("StatusFor(100) = %q, want on_track", got)
	}
}
