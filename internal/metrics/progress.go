package metrics

import (
	"math"

	"okrpulse/internal/okr"
)

// KeyResultProgress computes the percent progress of a key result from
// its start, current and target values. The result is floored at 0 but
// not capped above 100: a current value past the target legitimately
// reports more than 100 percent.
func KeyResultProgress(current, start, target float64) float64 {
	if start == target {
		if current >= target {
			return 100
		}
		return 0
	}

	progress := (current - start) / (target - start) * 100
	if math.IsNaN(progress) || math.IsInf(progress, 0) {
		return 0
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// Rollup averages key result progress percentages into the parent
// objective's integer percentage. An empty list rolls up to 0.
func Rollup(progresses []float64) int {
	if len(progresses) == 0 {
		return 0
	}
	var sum float64
	for _, p := range progresses {
		sum += p
	}
	return int(math.Round(sum / float64(len(progresses))))
}

// RollupKeyResults is Rollup over the Progress field of each key result.
func RollupKeyResults(krs []okr.KeyResult) int {
	progresses := make([]float64, len(krs))
	for i, kr := range krs {
		progresses[i] = kr.Progress
	}
	return Rollup(progresses)
}
