package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"okrpulse/internal/metrics"
	"okrpulse/internal/okr"
)

// CheckInRequest carries one self-reported progress update.
type CheckInRequest struct {
	OwnerID     string
	ObjectiveID string
	Confidence  int
	Comment     string
	Blockers    string
	Updates     []okr.ValueUpdate
}

// SubmitCheckIn runs the check-in protocol: state and cooldown guards,
// key result value updates, synchronous rollup onto the objective, the
// immutable check-in record, and the metadata refresh. Each step only
// runs when the previous one succeeded; a failed key result update
// aborts before anything is recorded.
//
// The cooldown guard is read-then-write: two concurrent check-ins can
// both pass it. Returns the check-in and the refreshed objective.
func (e *Engine) SubmitCheckIn(ctx context.Context, req CheckInRequest) (*okr.CheckIn, *okr.Objective, error) {
	if err := e.validateCheckIn(req); err != nil {
		return nil, nil, err
	}

	obj, err := e.Store.GetObjective(ctx, req.OwnerID, req.ObjectiveID)
	if err != nil {
		return nil, nil, fmt.Errorf("load objective: %w", err)
	}
	if obj == nil {
		return nil, nil, &NotFoundError{Resource: "objective", ID: req.ObjectiveID}
	}
	if !obj.IsActive {
		return nil, nil, &StateError{Op: "check-in", Reason: "objective is archived"}
	}

	now := e.clock()
	if obj.LastCheckInAt != nil && now.Sub(*obj.LastCheckInAt) < e.Limits.CheckInCooldown {
		return nil, nil, &RateLimitedError{RetryAfter: e.Limits.CheckInCooldown}
	}

	krByID := make(map[string]*okr.KeyResult, len(obj.KeyResults))
	for i := range obj.KeyResults {
		krByID[obj.KeyResults[i].ID] = &obj.KeyResults[i]
	}
	for _, u := range req.Updates {
		if _, ok := krByID[u.KeyResultID]; !ok {
			return nil, nil, &NotFoundError{Resource: "key result", ID: u.KeyResultID}
		}
	}

	previousProgress := obj.Progress
	changes := make([]okr.KeyResultUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		kr := krByID[u.KeyResultID]
		progress := metrics.KeyResultProgress(u.Value, kr.StartValue, kr.TargetValue)
		if err := e.Store.UpdateKeyResultValue(ctx, u.KeyResultID, u.Value, progress); err != nil {
			return nil, nil, fmt.Errorf("update key result %s: %w", u.KeyResultID, err)
		}
		changes = append(changes, okr.KeyResultUpdate{
			KeyResultID:   u.KeyResultID,
			PreviousValue: kr.CurrentValue,
			NewValue:      u.Value,
		})
		kr.CurrentValue = u.Value
		kr.Progress = progress
	}

	// Roll up synchronously so the parent can never lag behind its
	// key results.
	obj.Progress = metrics.RollupKeyResults(obj.KeyResults)
	obj.UpdatedAt = now
	if err := e.Store.SaveObjective(ctx, obj); err != nil {
		return nil, nil, fmt.Errorf("persist rollup: %w", err)
	}

	checkIn := &okr.CheckIn{
		ID:          uuid.NewString(),
		ObjectiveID: obj.ID,
		UserID:      req.OwnerID,
		Confidence:  req.Confidence,
		Comment:     req.Comment,
		Blockers:    req.Blockers,
		ChangeDetails: okr.ChangeDetails{
			KeyResultUpdates: changes,
			PreviousProgress: previousProgress,
			NewProgress:      obj.Progress,
		},
		CreatedAt: now,
	}
	if err := e.Store.InsertCheckIn(ctx, checkIn); err != nil {
		return nil, nil, fmt.Errorf("insert check-in: %w", err)
	}

	next := now.Add(e.Limits.CheckInCadence)
	obj.LastCheckInAt = &now
	obj.NextCheckInAt = &next
	obj.CheckInCount++
	obj.Confidence = req.Confidence
	obj.Status = metrics.StatusFor(obj.Progress, obj.CreatedAt, obj.DueDate, now)
	obj.UpdatedAt = now
	if err := e.Store.SaveObjective(ctx, obj); err != nil {
		return nil, nil, fmt.Errorf("refresh objective metadata: %w", err)
	}

	return checkIn, obj, nil
}

func (e *Engine) validateCheckIn(req CheckInRequest) error {
	var errs okr.ValidationErrors
	if strings.TrimSpace(req.OwnerID) == "" {
		errs = append(errs, okr.ValidationError{Field: "owner_id", Message: "owner_id is required"})
	}
	if err := okr.ValidateConfidence(req.Confidence); err != nil {
		errs = append(errs, okr.ValidationError{Field: "confidence", Message: err.Error()})
	}
	if verr := okr.ValidateReflection("comment", req.Comment); verr != nil {
		errs = append(errs, *verr)
	}
	if verr := okr.ValidateReflection("blockers", req.Blockers); verr != nil {
		errs = append(errs, *verr)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
