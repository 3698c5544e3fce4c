// Package remind scans for objectives whose next check-in is due and
// surfaces reminders through the notify package.
package remind

import (
	"context"
	"fmt"
	"io"
	"time"

	"okrpulse/internal/notify"
	"okrpulse/internal/okr"
)

// DueLister is the store surface the reminder needs.
type DueLister interface {
	ListDueCheckIns(ctx context.Context, now time.Time) ([]okr.Objective, error)
}

// Reminder scans for due check-ins and emits reminders.
type Reminder struct {
	Store    DueLister
	Notifier *notify.Notifier
	Now      func() time.Time
}

// Due is a single objective whose check-in is due.
type Due struct {
	Objective   okr.Objective
	OverdueDays int
}

// Scan returns the objectives due for a check-in, ordered as the store
// returns them. Objectives with no next_checkin_at are never due.
func (r *Reminder) Scan(ctx context.Context) ([]Due, error) {
	now := r.now()
	objs, err := r.Store.ListDueCheckIns(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due check-ins: %w", err)
	}

	due := make([]Due, 0, len(objs))
	for _, o := range objs {
		d := Due{Objective: o}
		if o.NextCheckInAt != nil {
			if overdue := now.Sub(*o.NextCheckInAt); overdue > 0 {
				d.OverdueDays = int(overdue.Hours() / 24)
			}
		}
		due = append(due, d)
	}
	return due, nil
}

// Run scans and sends one notification per due objective, writing a
// summary line per objective to w. Notification failures do not stop
// the run.
func (r *Reminder) Run(ctx context.Context, w io.Writer) (int, error) {
	due, err := r.Scan(ctx)
	if err != nil {
		return 0, err
	}

	for _, d := range due {
		if d.OverdueDays > 0 {
			fmt.Fprintf(w, "%s (%s): check-in overdue by %d days\n", d.Objective.Title, d.Objective.Quarter, d.OverdueDays)
		} else {
			fmt.Fprintf(w, "%s (%s): check-in due\n", d.Objective.Title, d.Objective.Quarter)
		}
		if r.Notifier != nil {
			title, message := notify.FormatCheckInDue(d.Objective.Title, d.OverdueDays)
			if err := r.Notifier.Send(title, message); err != nil {
				fmt.Fprintf(w, "  notification failed: %v\n", err)
			}
		}
	}
	return len(due), nil
}

func (r *Reminder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
