package metrics

// ConfidenceLevel is the qualitative reading of a 1-5 confidence rating.
type ConfidenceLevel struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var confidenceLevels = map[int]ConfidenceLevel{
	1: {Label: "Wird nicht erreicht", Color: "red"},
	2: {Label: "Unwahrscheinlich", Color: "red"},
	3: {Label: "Möglich", Color: "yellow"},
	4: {Label: "Wahrscheinlich", Color: "green"},
	5: {Label: "Wird erreicht", Color: "green"},
}

// ConfidenceInfo returns the label and color for a confidence rating.
// The second return value is false for ratings outside 1-5.
func ConfidenceInfo(level int) (ConfidenceLevel, bool) {
	info, ok := confidenceLevels[level]
	return info, ok
}
