package report_test

import (
	"strings"
	"testing"
	"time"

	"okrpulse/internal/okr"
	"okrpulse/internal/report"
)

func sampleObjective() *okr.Objective {
	return &okr.Objective{
		ID:         "obj-1",
		Title:      "Reduce churn",
		Quarter:    "Q3 2026",
		Category:   okr.CategoryPerformance,
		Scope:      okr.ScopeTeam,
		Progress:   60,
		Status:     okr.StatusOnTrack,
		Confidence: 4,
		IsActive:   true,
		KeyResults: []okr.KeyResult{
			{ID: "kr-1", Title: "Close deals", StartValue: 0, CurrentValue: 5, TargetValue: 10, Unit: "deals", Progress: 50},
			{ID: "kr-2", Title: "Grow MRR", StartValue: 100, CurrentValue: 170, TargetValue: 200, Unit: "k EUR", Progress: 70},
		},
	}
}

func TestSnapshot(t *testing.T) {
	snap, err := report.Snapshot(sampleObjective())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	for _, want := range []string{
		"title: Reduce churn",
		"quarter: Q3 2026",
		"progress: 60",
		"score: 0.6",
		"status: on_track",
		"title: Close deals",
		"current: 5",
	} {
		if !strings.Contains(snap, want) {
			t.Errorf("snapshot missing %q:\n%s", want, snap)
		}
	}
	if strings.Contains(snap, "archived") {
		t.Errorf("active objective snapshot should omit archived:\n%s", snap)
	}
}

func TestDiffIdenticalIsEmpty(t *testing.T) {
	snap, err := report.Snapshot(sampleObjective())
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	text, err := report.Diff("a", "b", snap, snap)
	if err != nil {
		t.Fatalf("Diff() error: %v", err)
	}
	if text != "" {
		t.Errorf("Diff() of identical snapshots = %q, want empty", text)
	}
}

func TestDiffShowsChanges(t *testing.T) {
	obj := sampleObjective()
	before, err := report.Snapshot(obj)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	obj.Progress = 75
	obj.KeyResults[0].CurrentValue = 8
	obj.KeyResults[0].Progress = 80
	after, err := report.Snapshot(obj)
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	text, err := report.Diff("before", "after", before, after)
	if err != nil {
		t.Fatalf("Diff() error: %v", err)
	}
	if !strings.Contains(text, "-progress: 60") || !strings.Contains(text, "+progress: 75") {
		t.Errorf("diff missing progress change:\n%s", text)
	}
	if !strings.Contains(text, "--- before") || !strings.Contains(text, "+++ after") {
		t.Errorf("diff missing file labels:\n%s", text)
	}
}

func TestCheckInDiff(t *testing.T) {
	obj := sampleObjective()
	ci := okr.CheckIn{
		ID:          "ci-1",
		ObjectiveID: obj.ID,
		Confidence:  4,
		ChangeDetails: okr.ChangeDetails{
			KeyResultUpdates: []okr.KeyResultUpdate{
				{KeyResultID: "kr-1", PreviousValue: 2, NewValue: 5},
			},
			PreviousProgress: 45,
			NewProgress:      60,
		},
		CreatedAt: time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC),
	}

	text, err := report.CheckInDiff(obj, ci)
	if err != nil {
		t.Fatalf("CheckInDiff() error: %v", err)
	}
	if !strings.Contains(text, "-progress: 45") || !strings.Contains(text, "+progress: 60") {
		t.Errorf("diff missing rollup change:\n%s", text)
	}
	if !strings.Contains(text, "current: 2") || !strings.Contains(text, "current: 5") {
		t.Errorf("diff missing key result value change:\n%s", text)
	}
	if !strings.Contains(text, "before 2026-07-15 09:00") {
		t.Errorf("diff missing timestamp label:\n%s", text)
	}
}
