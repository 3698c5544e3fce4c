package remind_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"okrpulse/internal/okr"
	"okrpulse/internal/remind"
	"okrpulse/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "okr.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func insertObjective(t *testing.T, s *store.Store, id, title string, next *time.Time) {
	t.Helper()
	created := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	obj := &okr.Objective{
		ID:            id,
		OwnerID:       "user-1",
		OrgID:         "org-1",
		Title:         title,
		Quarter:       "Q3 2026",
		Category:      okr.CategoryPerformance,
		Scope:         okr.ScopePersonal,
		Status:        okr.StatusOnTrack,
		Confidence:    3,
		IsActive:      true,
		NextCheckInAt: next,
		DueDate:       time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if err := s.InsertObjective(context.Background(), obj); err != nil {
		t.Fatalf("insert objective: %v", err)
	}
}

func TestScanDueAndOverdue(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)

	overdue := now.AddDate(0, 0, -3)
	dueNow := now.Add(-time.Hour)
	future := now.AddDate(0, 0, 5)

	insertObjective(t, s, "obj-overdue", "Reduce churn", &overdue)
	insertObjective(t, s, "obj-due", "Launch referrals", &dueNow)
	insertObjective(t, s, "obj-future", "Hire two engineers", &future)
	insertObjective(t, s, "obj-unscheduled", "Write the handbook", nil)

	r := &remind.Reminder{Store: s, Now: func() time.Time { return now }}
	due, err := r.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Scan() returned %d objectives, want 2", len(due))
	}

	days := map[string]int{}
	for _, d := range due {
		days[d.Objective.ID] = d.OverdueDays
	}
	if got, ok := days["obj-overdue"]; !ok || got != 3 {
		t.Errorf("obj-overdue overdue days = %d (found %v), want 3", got, ok)
	}
	if got, ok := days["obj-due"]; !ok || got != 0 {
		t.Errorf("obj-due overdue days = %d (found %v), want 0", got, ok)
	}
}

func TestScanSkipsArchived(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)

	insertObjective(t, s, "obj-1", "Reduce churn", &past)

	ctx := context.Background()
	obj, err := s.GetObjective(ctx, "user-1", "obj-1")
	if err != nil {
		t.Fatalf("get objective: %v", err)
	}
	obj.IsActive = false
	if err := s.SaveObjective(ctx, obj); err != nil {
		t.Fatalf("save objective: %v", err)
	}

	r := &remind.Reminder{Store: s, Now: func() time.Time { return now }}
	due, err := r.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("Scan() returned %d objectives, want 0", len(due))
	}
}

func TestRunWritesSummary(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)

	overdue := now.AddDate(0, 0, -2)
	dueNow := now.Add(-time.Minute)
	insertObjective(t, s, "obj-1", "Reduce churn", &overdue)
	insertObjective(t, s, "obj-2", "Launch referrals", &dueNow)

	r := &remind.Reminder{Store: s, Now: func() time.Time { return now }}
	var buf bytes.Buffer
	n, err := r.Run(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Run() = %d, want 2", n)
	}

	out := buf.String()
	if !strings.Contains(out, "Reduce churn (Q3 2026): check-in overdue by 2 days") {
		t.Errorf("output missing overdue line:\n%s", out)
	}
	if !strings.Contains(out, "Launch referrals (Q3 2026): check-in due") {
		t.Errorf("output missing due line:\n%s", out)
	}
}
