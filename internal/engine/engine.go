// Package engine implements the progress and lifecycle rules for
// quarterly objectives: capacity caps, the check-in protocol, archive,
// restore and duplicate transitions, and career qualification.
//
// The engine is stateless between calls. Persistence is a collaborator
// behind the Store interface; the engine specifies the steps and their
// ordering, not the transaction mechanics. The check-in cooldown and
// the capacity checks are read-then-write guards: two concurrent
// requests can both pass them. Callers that need strict enforcement
// must serialize per objective or per (user, quarter).
package engine

import (
	"context"
	"time"

	"okrpulse/internal/config"
	"okrpulse/internal/okr"
)

// Store is the persistence collaborator. Lookup methods return
// (nil, nil) when the entity does not exist or belongs to another
// owner; the engine maps both to NotFoundError.
type Store interface {
	// GetObjective loads an objective and its key results, scoped to ownerID.
	GetObjective(ctx context.Context, ownerID, objectiveID string) (*okr.Objective, error)
	// InsertObjective persists a new objective without its key results.
	InsertObjective(ctx context.Context, obj *okr.Objective) error
	// InsertKeyResults persists new key results.
	InsertKeyResults(ctx context.Context, krs []okr.KeyResult) error
	// RemoveObjective hard-deletes an objective and its key results.
	// Used only as rollback compensation for a failed multi-step create.
	RemoveObjective(ctx context.Context, objectiveID string) error
	// SaveObjective persists the mutable fields of an objective.
	SaveObjective(ctx context.Context, obj *okr.Objective) error
	// UpdateKeyResultValue persists a key result's current value and progress.
	UpdateKeyResultValue(ctx context.Context, keyResultID string, current, progress float64) error
	// InsertCheckIn appends an immutable check-in record.
	InsertCheckIn(ctx context.Context, c *okr.CheckIn) error
	// ActiveCount counts the owner's active objectives in a quarter.
	ActiveCount(ctx context.Context, ownerID, quarterLabel string) (int, error)
	// FocusedActiveCount counts the owner's focused active objectives in a quarter.
	FocusedActiveCount(ctx context.Context, ownerID, quarterLabel string) (int, error)
}

// Engine evaluates and applies objective state transitions.
type Engine struct {
	Store  Store
	Limits config.Limits

	// Now supplies the wall clock and is injectable for tests.
	Now func() time.Time
}

// New returns an engine over the given store with the given limits.
func New(store Store, limits config.Limits) *Engine {
	return &Engine{Store: store, Limits: limits, Now: time.Now}
}

func (e *Engine) clock() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
