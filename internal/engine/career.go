package engine

import "okrpulse/internal/okr"

// Qualifies reports whether a qualifying-objective count meets the
// required threshold. Counting and attribution of qualifying
// objectives is the caller's responsibility.
func Qualifies(qualifying, required int) bool {
	return qualifying >= required
}

// Qualifies applies the engine's configured threshold to a career
// progress counter.
func (e *Engine) Qualifies(p okr.CareerProgress) bool {
	return Qualifies(p.QualifyingOKRCount, e.Limits.CareerRequired)
}
