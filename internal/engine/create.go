package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"okrpulse/internal/metrics"
	"okrpulse/internal/okr"
	"okrpulse/internal/quarter"
)

// CreateObjectiveRequest carries the input for a new objective.
type CreateObjectiveRequest struct {
	OwnerID string
	OrgID   string
	Draft   okr.ObjectiveDraft

	// DueDate overrides the target quarter's end date when set.
	DueDate   *time.Time
	SortOrder int
}

// CreateObjective validates the draft, enforces the per-quarter cap
// and persists the objective with its key results. If inserting the
// key results fails after the objective insert succeeded, the
// objective is deleted again so nothing partial remains.
func (e *Engine) CreateObjective(ctx context.Context, req CreateObjectiveRequest) (*okr.Objective, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, okr.ValidationErrors{{Field: "owner_id", Message: "owner_id is required"}}
	}
	draft, errs := okr.ValidateDraft(req.Draft)
	if len(errs) > 0 {
		return nil, errs
	}

	active, err := e.Store.ActiveCount(ctx, req.OwnerID, draft.Quarter)
	if err != nil {
		return nil, fmt.Errorf("count active objectives: %w", err)
	}
	if !e.CanCreateObjective(active) {
		return nil, &CapacityError{
			Kind:    "active_objectives",
			Quarter: draft.Quarter,
			Limit:   e.Limits.MaxActivePerQuarter,
		}
	}

	now := e.clock()
	category, _ := okr.ParseCategory(draft.Category)
	scope, _ := okr.ParseScope(draft.Scope)

	_, quarterEnd := quarter.DateRange(draft.Quarter, now)
	due := quarterEnd
	if req.DueDate != nil {
		due = req.DueDate.UTC()
	}
	nextCheckIn := now.Add(e.Limits.CheckInCadence)

	obj := &okr.Objective{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		OrgID:         req.OrgID,
		Title:         draft.Title,
		Quarter:       draft.Quarter,
		Category:      category,
		Scope:         scope,
		Confidence:    draft.Confidence,
		IsActive:      true,
		SortOrder:     req.SortOrder,
		DueDate:       due,
		NextCheckInAt: &nextCheckIn,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	krs := make([]okr.KeyResult, len(draft.KeyResults))
	for i, kr := range draft.KeyResults {
		krs[i] = okr.KeyResult{
			ID:           uuid.NewString(),
			ObjectiveID:  obj.ID,
			Title:        kr.Title,
			StartValue:   kr.Start,
			CurrentValue: kr.Start,
			TargetValue:  kr.Target,
			Unit:         kr.Unit,
			Progress:     metrics.KeyResultProgress(kr.Start, kr.Start, kr.Target),
			SortOrder:    i,
		}
	}
	obj.Progress = metrics.RollupKeyResults(krs)
	obj.Status = metrics.StatusFor(obj.Progress, now, due, now)

	if err := e.Store.InsertObjective(ctx, obj); err != nil {
		return nil, fmt.Errorf("insert objective: %w", err)
	}
	if err := e.Store.InsertKeyResults(ctx, krs); err != nil {
		rbErr := e.Store.RemoveObjective(ctx, obj.ID)
		return nil, &RollbackError{Op: "create objective", Cause: err, RollbackErr: rbErr}
	}
	obj.KeyResults = krs

	return obj, nil
}
