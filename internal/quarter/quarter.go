package quarter

import (
	"fmt"
	"regexp"
	"time"
)

// labelPattern matches quarter labels like "Q3 2026".
var labelPattern = regexp.MustCompile(`^Q([1-4]) (\d{4})$`)

// Parse splits a quarter label into quarter number and year.
func Parse(label string) (int, int, error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid quarter label %q", label)
	}
	q := int(m[1][0] - '0')
	year := 0
	for _, c := range m[2] {
		year = year*10 + int(c-'0')
	}
	return q, year, nil
}

// Format renders a quarter number and year as a label.
func Format(q, year int) string {
	return fmt.Sprintf("Q%d %d", q, year)
}

// IsValid reports whether label is a well-formed quarter label.
func IsValid(label string) bool {
	return labelPattern.MatchString(label)
}

// Current returns the label of the quarter containing now.
func Current(now time.Time) string {
	q := (int(now.Month())-1)/3 + 1
	return Format(q, now.Year())
}

// Next returns the following quarter, rolling the year on Q4.
// Malformed input falls back to the current quarter.
func Next(label string, now time.Time) string {
	q, year, err := Parse(label)
	if err != nil {
		return Current(now)
	}
	if q == 4 {
		return Format(1, year+1)
	}
	return Format(q+1, year)
}

// Previous returns the preceding quarter, rolling the year on Q1.
// Malformed input falls back to the current quarter.
func Previous(label string, now time.Time) string {
	q, year, err := Parse(label)
	if err != nil {
		return Current(now)
	}
	if q == 1 {
		return Format(4, year-1)
	}
	return Format(q-1, year)
}

// DateRange returns the first and last day of the quarter in UTC.
// Malformed input returns (now, now).
func DateRange(label string, now time.Time) (time.Time, time.Time) {
	q, year, err := Parse(label)
	if err != nil {
		return now, now
	}
	startMonth := time.Month((q-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).AddDate(0, 0, -1)
	return start, end
}

// Option is one selectable quarter, tagged when it is the current one.
type Option struct {
	Label   string `json:"label" yaml:"label"`
	Current bool   `json:"current" yaml:"current"`
}

// Available returns the previous, current and next quarter relative to now.
func Available(now time.Time) []Option {
	current := Current(now)
	return []Option{
		{Label: Previous(current, now)},
		{Label: current, Current: true},
		{Label: Next(current, now)},
	}
}
