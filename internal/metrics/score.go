package metrics

import "math"

// ScoreBand is the qualitative interpretation of a 0.0-1.0 score.
type ScoreBand struct {
	Label      string `json:"label"`
	BadgeClass string `json:"badge_class"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

// ProgressToScore converts a 0-100 percentage to a 0.0-1.0 score,
// rounded to one decimal place.
func ProgressToScore(progress int) float64 {
	return math.Round(float64(progress)/10) / 10
}

// ScoreToProgress converts a 0.0-1.0 score to the nearest integer percentage.
func ScoreToProgress(score float64) int {
	return int(math.Round(score * 100))
}

// InterpretScore maps a score to its band. The lower bound of each
// band is inclusive.
func InterpretScore(score float64) ScoreBand {
	switch {
	case score >= 0.7:
		return ScoreBand{
			Label:      "Erfolgreich",
			BadgeClass: "success",
			Color:      "#16a34a",
			Background: "#dcfce7",
		}
	case score >= 0.4:
		return ScoreBand{
			Label:      "Teilweise erreicht",
			BadgeClass: "warning",
			Color:      "#a16207",
			Background: "#fef9c3",
		}
	default:
		return ScoreBand{
			Label:      "Nicht erreicht",
			BadgeClass: "danger",
			Color:      "#dc2626",
			Background: "#fee2e2",
		}
	}
}
