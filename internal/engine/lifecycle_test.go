package engine_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"okrpulse/internal/engine"
	"okrpulse/internal/okr"
)

func TestArchiveIdempotent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	obj := mustCreate(t, e, "To be archived")
	if _, err := e.SetFocus(context.Background(), "user-1", obj.ID, true); err != nil {
		t.Fatal(err)
	}

	first, err := e.Archive(context.Background(), "user-1", obj.ID)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if first.IsActive {
		t.Fatalf("objective still active after archive")
	}
	if first.IsFocus {
		t.Fatalf("archive must clear focus")
	}

	second, err := e.Archive(context.Background(), "user-1", obj.ID)
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("archive not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRestore(t *testing.T) {
	e, _, _ := newTestEngine(t)
	obj := mustCreate(t, e, "To be restored")

	if _, err := e.Archive(context.Background(), "user-1", obj.ID); err != nil {
		t.Fatal(err)
	}
	restored, err := e.Restore(context.Background(), "user-1", obj.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.IsActive || restored.IsFocus {
		t.Fatalf("restored state = active %v focus %v, want active without focus", restored.IsActive, restored.IsFocus)
	}

	// Restoring an active objective is a no-op.
	again, err := e.Restore(context.Background(), "user-1", obj.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(restored, again) {
		t.Fatalf("restore not idempotent")
	}
}

func TestSetFocus(t *testing.T) {
	e, _, _ := newTestEngine(t)
	obj := mustCreate(t, e, "Focus me")

	focused, err := e.SetFocus(context.Background(), "user-1", obj.ID, true)
	if err != nil {
		t.Fatalf("set focus: %v", err)
	}
	if !focused.IsFocus {
		t.Fatalf("focus flag not set")
	}

	unfocused, err := e.SetFocus(context.Background(), "user-1", obj.ID, false)
	if err != nil {
		t.Fatalf("unset focus: %v", err)
	}
	if unfocused.IsFocus {
		t.Fatalf("focus flag not cleared")
	}
}

func TestSetFocusCapacity(t *testing.T) {
	e, s, _ := newTestEngine(t)

	for i := 0; i < 2; i++ {
		obj := mustCreate(t, e, "Focused")
		if _, err := e.SetFocus(context.Background(), "user-1", obj.ID, true); err != nil {
			t.Fatalf("focus %d: %v", i, err)
		}
	}

	third := mustCreate(t, e, "One focus too many")
	_, err := e.SetFocus(context.Background(), "user-1", third.ID, true)
	var capErr *engine.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Kind != "focused_objectives" || capErr.Limit != 2 {
		t.Fatalf("unexpected capacity error: %+v", capErr)
	}

	// Unfocusing one frees a slot.
	objs, err := s.ListObjectives(context.Background(), "user-1", "Q3 2026", false)
	if err != nil {
		t.Fatal(err)
	}
	var focusedID string
	for _, o := range objs {
		if o.IsFocus {
			focusedID = o.ID
			break
		}
	}
	if focusedID == "" {
		t.Fatalf("no focused objective found")
	}
	if _, err := e.SetFocus(context.Background(), "user-1", focusedID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetFocus(context.Background(), "user-1", third.ID, true); err != nil {
		t.Fatalf("focus after freeing a slot: %v", err)
	}
}

func TestSetFocusArchived(t *testing.T) {
	e, _, _ := newTestEngine(t)
	obj := mustCreate(t, e, "Archived")
	if _, err := e.Archive(context.Background(), "user-1", obj.ID); err != nil {
		t.Fatal(err)
	}

	_, err := e.SetFocus(context.Background(), "user-1", obj.ID, true)
	var stateErr *engine.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	e, _, clock := newTestEngine(t)
	obj := mustCreate(t, e, "Recurring goal")
	clock.advance(time.Hour)

	// Give the source some progress first.
	_, src, err := e.SubmitCheckIn(context.Background(), engine.CheckInRequest{
		OwnerID:     "user-1",
		ObjectiveID: obj.ID,
		Confidence:  5,
		Updates:     []okr.ValueUpdate{{KeyResultID: obj.KeyResults[0].ID, Value: 8}},
	})
	if err != nil {
		t.Fatal(err)
	}

	dup, err := e.Duplicate(context.Background(), engine.DuplicateRequest{
		OwnerID:        "user-1",
		ObjectiveID:    obj.ID,
		TargetQuarter:  "Q4 2026",
		CopyKeyResults: true,
	})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.ID == src.ID {
		t.Fatalf("duplicate reused the source id")
	}
	if dup.Quarter != "Q4 2026" {
		t.Fatalf("quarter = %q, want Q4 2026", dup.Quarter)
	}
	wantDue := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	if !dup.DueDate.Equal(wantDue) {
		t.Fatalf("due date = %s, want target quarter end %s", dup.DueDate, wantDue)
	}
	if dup.Progress != src.Progress || dup.Confidence != src.Confidence {
		t.Fatalf("progress/confidence not copied: %+v", dup)
	}
	if len(dup.KeyResults) != 2 || dup.KeyResults[0].CurrentValue != 8 {
		t.Fatalf("key results not copied: %+v", dup.KeyResults)
	}
	if dup.CheckInCount != 0 || dup.LastCheckInAt != nil {
		t.Fatalf("check-in metadata must reset on duplicate: %+v", dup)
	}
}

func TestDuplicateResetProgress(t *testing.T) {
	e, _, clock := newTestEngine(t)
	obj := mustCreate(t, e, "Recurring goal")
	clock.advance(time.Hour)

	if _, _, err := e.SubmitCheckIn(context.Background(), engine.CheckInRequest{
		OwnerID:     "user-1",
		ObjectiveID: obj.ID,
		Confidence:  5,
		Updates:     []okr.ValueUpdate{{KeyResultID: obj.KeyResults[0].ID, Value: 8}},
	}); err != nil {
		t.Fatal(err)
	}

	dup, err := e.Duplicate(context.Background(), engine.DuplicateRequest{
		OwnerID:        "user-1",
		ObjectiveID:    obj.ID,
		TargetQuarter:  "Q4 2026",
		ResetProgress:  true,
		CopyKeyResults: true,
		ResetValues:    true,
	})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if dup.Progress != 0 {
		t.Fatalf("progress = %d, want 0 after reset", dup.Progress)
	}
	if dup.Confidence != okr.DefaultConfidence {
		t.Fatalf("confidence = %d, want neutral default %d", dup.Confidence, okr.DefaultConfidence)
	}
	for _, kr := range dup.KeyResults {
		if kr.CurrentValue != kr.StartValue {
			t.Fatalf("key result value not reset: %+v", kr)
		}
	}
}

func TestDuplicateCapacity(t *testing.T) {
	e, s, _ := newTestEngine(t)
	src := mustCreate(t, e, "Source")

	// Fill the target quarter to its cap.
	for i := 0; i < 5; i++ {
		d := draft("Q4 filler")
		d.Quarter = "Q4 2026"
		if _, err := e.CreateObjective(context.Background(), engine.CreateObjectiveRequest{
			OwnerID: "user-1",
			Draft:   d,
		}); err != nil {
			t.Fatal(err)
		}
	}

	_, err := e.Duplicate(context.Background(), engine.DuplicateRequest{
		OwnerID:        "user-1",
		ObjectiveID:    src.ID,
		TargetQuarter:  "Q4 2026",
		ResetProgress:  true,
		CopyKeyResults: true,
	})
	var capErr *engine.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}

	// Nothing was created.
	objs, err := s.ListObjectives(context.Background(), "user-1", "Q4 2026", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 5 {
		t.Fatalf("target quarter has %d objectives, want 5", len(objs))
	}
	for _, o := range objs {
		if o.Title == "Source" {
			t.Fatalf("duplicate escaped the capacity check")
		}
	}
}

func TestDuplicateRollback(t *testing.T) {
	e, s, _ := newTestEngine(t)
	src := mustCreate(t, e, "Source")
	e.Store = &failingKRStore{Store: s}

	_, err := e.Duplicate(context.Background(), engine.DuplicateRequest{
		OwnerID:        "user-1",
		ObjectiveID:    src.ID,
		TargetQuarter:  "Q4 2026",
		CopyKeyResults: true,
	})
	var rbErr *engine.RollbackError
	if !errors.As(err, &rbErr) {
		t.Fatalf("expected RollbackError, got %v", err)
	}

	objs, err := s.ListObjectives(context.Background(), "user-1", "Q4 2026", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(objs) != 0 {
		t.Fatalf("duplicate left behind after rollback: %+v", objs)
	}
}

func TestDuplicateInvalidQuarter(t *testing.T) {
	e, _, _ := newTestEngine(t)
	src := mustCreate(t, e, "Source")

	_, err := e.Duplicate(context.Background(), engine.DuplicateRequest{
		OwnerID:       "user-1",
		ObjectiveID:   src.ID,
		TargetQuarter: "Winter 2026",
	})
	var verrs okr.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
}

func TestQualifies(t *testing.T) {
	e, _, _ := newTestEngine(t)

	if !engine.Qualifies(4, 4) {
		t.Fatalf("Qualifies(4, 4) = false, want true")
	}
	if engine.Qualifies(3, 4) {
		t.Fatalf("Qualifies(3, 4) = true, want false")
	}
	if !engine.Qualifies(2, 2) {
		t.Fatalf("Qualifies(2, 2) = false, want true")
	}

	if !e.Qualifies(okr.CareerProgress{QualifyingOKRCount: 4}) {
		t.Fatalf("engine default threshold should pass at 4")
	}
	if e.Qualifies(okr.CareerProgress{QualifyingOKRCount: 3}) {
		t.Fatalf("engine default threshold should fail at 3")
	}
}
