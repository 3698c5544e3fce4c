package engine

import (
	"fmt"
	"time"
)

// CapacityError reports that a per-quarter cap is already reached.
// The operation was aborted before any write.
type CapacityError struct {
	Kind    string // "active_objectives" or "focused_objectives"
	Quarter string
	Limit   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s limit of %d reached for %s", e.Kind, e.Limit, e.Quarter)
}

// NotFoundError reports a missing entity. Entities owned by a
// different user surface the same way so that existence is not leaked.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StateError reports an action that is invalid for the entity's
// current lifecycle state.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// RateLimitedError reports a check-in inside the cooldown window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("check-in rate limited, retry after %s", e.RetryAfter)
}

// RollbackError reports that a later step of a multi-step operation
// failed after an earlier step committed, and that the earlier step
// was compensated. RollbackErr is set when the compensation itself
// failed, leaving an inconsistent partial state behind.
type RollbackError struct {
	Op          string
	Cause       error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("%s: %v (rollback also failed: %v)", e.Op, e.Cause, e.RollbackErr)
	}
	return fmt.Sprintf("%s: %v (rolled back)", e.Op, e.Cause)
}

func (e *RollbackError) Unwrap() error {
	return e.Cause
}
