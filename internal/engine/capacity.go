package engine

// CanCreateObjective reports whether another active objective fits
// under the per-quarter cap, given the caller-supplied active count.
func CanCreateObjective(activeInQuarter, maxActive int) bool {
	return activeInQuarter < maxActive
}

// CanFocus reports whether another focus flag fits under the
// per-quarter cap, given the caller-supplied focused-active count.
func CanFocus(focusedActiveInQuarter, maxFocused int) bool {
	return focusedActiveInQuarter < maxFocused
}

// CanCreateObjective applies the engine's configured cap.
func (e *Engine) CanCreateObjective(activeInQuarter int) bool {
	return CanCreateObjective(activeInQuarter, e.Limits.MaxActivePerQuarter)
}

// CanFocus applies the engine's configured cap.
func (e *Engine) CanFocus(focusedActiveInQuarter int) bool {
	return CanFocus(focusedActiveInQuarter, e.Limits.MaxFocusedPerQuarter)
}
