package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"okrpulse/internal/metrics"
	"okrpulse/internal/okr"
	"okrpulse/internal/quarter"
)

// Archive deactivates an objective and clears its focus flag.
// Idempotent: an already-archived objective is returned unchanged
// without a write.
func (e *Engine) Archive(ctx context.Context, ownerID, objectiveID string) (*okr.Objective, error) {
	obj, err := e.Store.GetObjective(ctx, ownerID, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("load objective: %w", err)
	}
	if obj == nil {
		return nil, &NotFoundError{Resource: "objective", ID: objectiveID}
	}
	if !obj.IsActive {
		return obj, nil
	}

	obj.IsActive = false
	obj.IsFocus = false
	obj.UpdatedAt = e.clock()
	if err := e.Store.SaveObjective(ctx, obj); err != nil {
		return nil, fmt.Errorf("archive objective: %w", err)
	}
	return obj, nil
}

// Restore reactivates an archived objective with focus cleared.
// Idempotent like Archive.
func (e *Engine) Restore(ctx context.Context, ownerID, objectiveID string) (*okr.Objective, error) {
	obj, err := e.Store.GetObjective(ctx, ownerID, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("load objective: %w", err)
	}
	if obj == nil {
		return nil, &NotFoundError{Resource: "objective", ID: objectiveID}
	}
	if obj.IsActive {
		return obj, nil
	}

	obj.IsActive = true
	obj.IsFocus = false
	obj.UpdatedAt = e.clock()
	if err := e.Store.SaveObjective(ctx, obj); err != nil {
		return nil, fmt.Errorf("restore objective: %w", err)
	}
	return obj, nil
}

// SetFocus flips the focus flag. Turning focus on requires an active
// objective and a free slot under the per-quarter focus cap; turning
// it off is unconditional. The capacity read is a soft guard, like the
// check-in cooldown.
func (e *Engine) SetFocus(ctx context.Context, ownerID, objectiveID string, focus bool) (*okr.Objective, error) {
	obj, err := e.Store.GetObjective(ctx, ownerID, objectiveID)
	if err != nil {
		return nil, fmt.Errorf("load objective: %w", err)
	}
	if obj == nil {
		return nil, &NotFoundError{Resource: "objective", ID: objectiveID}
	}
	if obj.IsFocus == focus {
		return obj, nil
	}

	if focus {
		if !obj.IsActive {
			return nil, &StateError{Op: "set focus", Reason: "objective is archived"}
		}
		focused, err := e.Store.FocusedActiveCount(ctx, ownerID, obj.Quarter)
		if err != nil {
			return nil, fmt.Errorf("count focused objectives: %w", err)
		}
		if !e.CanFocus(focused) {
			return nil, &CapacityError{
				Kind:    "focused_objectives",
				Quarter: obj.Quarter,
				Limit:   e.Limits.MaxFocusedPerQuarter,
			}
		}
	}

	obj.IsFocus = focus
	obj.UpdatedAt = e.clock()
	if err := e.Store.SaveObjective(ctx, obj); err != nil {
		return nil, fmt.Errorf("set focus: %w", err)
	}
	return obj, nil
}

// DuplicateRequest describes a copy of an objective into a target quarter.
type DuplicateRequest struct {
	OwnerID     string
	ObjectiveID string
	// TargetQuarter is the quarter label the copy lands in.
	TargetQuarter string
	// ResetProgress zeroes the copy's progress and resets confidence
	// to the neutral default.
	ResetProgress bool
	// CopyKeyResults copies the source's key results onto the copy.
	CopyKeyResults bool
	// ResetValues resets each copied key result's current value to its
	// start value. Only meaningful with CopyKeyResults.
	ResetValues bool
}

// Duplicate creates a copy of an objective in a target quarter. The
// target quarter's capacity is enforced before any write, the copy's
// due date derives from the target quarter's end, and the whole
// operation is all-or-nothing: if copying key results fails, the new
// objective is deleted again.
func (e *Engine) Duplicate(ctx context.Context, req DuplicateRequest) (*okr.Objective, error) {
	if !quarter.IsValid(req.TargetQuarter) {
		return nil, okr.ValidationErrors{{
			Field:   "target_quarter",
			Message: fmt.Sprintf("invalid quarter label %q", req.TargetQuarter),
		}}
	}

	src, err := e.Store.GetObjective(ctx, req.OwnerID, req.ObjectiveID)
	if err != nil {
		return nil, fmt.Errorf("load objective: %w", err)
	}
	if src == nil {
		return nil, &NotFoundError{Resource: "objective", ID: req.ObjectiveID}
	}

	active, err := e.Store.ActiveCount(ctx, req.OwnerID, req.TargetQuarter)
	if err != nil {
		return nil, fmt.Errorf("count active objectives: %w", err)
	}
	if !e.CanCreateObjective(active) {
		return nil, &CapacityError{
			Kind:    "active_objectives",
			Quarter: req.TargetQuarter,
			Limit:   e.Limits.MaxActivePerQuarter,
		}
	}

	now := e.clock()
	_, quarterEnd := quarter.DateRange(req.TargetQuarter, now)
	nextCheckIn := now.Add(e.Limits.CheckInCadence)

	dup := &okr.Objective{
		ID:            uuid.NewString(),
		OwnerID:       src.OwnerID,
		OrgID:         src.OrgID,
		Title:         src.Title,
		Quarter:       req.TargetQuarter,
		Category:      src.Category,
		Scope:         src.Scope,
		Progress:      src.Progress,
		Confidence:    src.Confidence,
		IsActive:      true,
		SortOrder:     src.SortOrder,
		DueDate:       quarterEnd,
		NextCheckInAt: &nextCheckIn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ResetProgress {
		dup.Progress = 0
		dup.Confidence = okr.DefaultConfidence
	}
	dup.Status = metrics.StatusFor(dup.Progress, now, quarterEnd, now)

	if err := e.Store.InsertObjective(ctx, dup); err != nil {
		return nil, fmt.Errorf("insert objective: %w", err)
	}

	if req.CopyKeyResults {
		krs := make([]okr.KeyResult, len(src.KeyResults))
		for i, kr := range src.KeyResults {
			copied := okr.KeyResult{
				ID:           uuid.NewString(),
				ObjectiveID:  dup.ID,
				Title:        kr.Title,
				StartValue:   kr.StartValue,
				CurrentValue: kr.CurrentValue,
				TargetValue:  kr.TargetValue,
				Unit:         kr.Unit,
				Progress:     kr.Progress,
				SortOrder:    kr.SortOrder,
			}
			if req.ResetValues {
				copied.CurrentValue = copied.StartValue
				copied.Progress = metrics.KeyResultProgress(copied.StartValue, copied.StartValue, copied.TargetValue)
			}
			krs[i] = copied
		}
		if err := e.Store.InsertKeyResults(ctx, krs); err != nil {
			rbErr := e.Store.RemoveObjective(ctx, dup.ID)
			return nil, &RollbackError{Op: "duplicate objective", Cause: err, RollbackErr: rbErr}
		}
		dup.KeyResults = krs
	}

	return dup, nil
}
