package services

import (
	"context"
	"fmt"
	"time"

	"finbook/internal/core"
	applog "finbook/internal/log"
)

// SweeperStore is the slice of persistence the sweeper needs.
type SweeperStore interface {
	MarkBillsOverdue(ctx context.Context, asOf time.Time) (int64, error)
	ListPendingBillsDueBetween(ctx context.Context, from, to time.Time) ([]core.Bill, error)
}

// BillSweeper is the periodic pass over all users' bills: pending bills past
// their cursor become overdue, and bills entering their reminder window get a
// reminder notification.
type BillSweeper struct {
	store     SweeperStore
	notifier  Notifier
	lookahead int // max days scanned ahead for reminders
	log       *applog.Logger
}

func NewBillSweeper(store SweeperStore, notifier Notifier, lookaheadDays int) *BillSweeper {
	return &BillSweeper{
		store:     store,
		notifier:  notifier,
		lookahead: lookaheadDays,
		log:       applog.Default(applog.ComponentWorker),
	}
}

// SweepResult reports one pass.
type SweepResult struct {
	Overdue   int64
	Reminders int
}

// Sweep runs a single pass as of now. A bill is reminded on the day exactly
// ReminderDays before its cursor, so a sweeper running daily sends one
// reminder per bill per cycle.
func (s *BillSweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	today := startOfDay(now)

	overdue, err := s.store.MarkBillsOverdue(ctx, today)
	if err != nil {
		return result, fmt.Errorf("mark overdue: %w", err)
	}
	result.Overdue = overdue
	if overdue > 0 {
		s.log.InfoContext(ctx, "Marked bills overdue",
			"count", overdue,
			"as_of", core.DayKey(today))
	}

	bills, err := s.store.ListPendingBillsDueBetween(ctx, today, today.AddDate(0, 0, s.lookahead))
	if err != nil {
		return result, fmt.Errorf("list upcoming bills: %w", err)
	}

	for _, b := range bills {
		reminderDay := b.NextDueDate.AddDate(0, 0, -b.ReminderDays)
		if core.DayKey(reminderDay) != core.DayKey(today) {
			continue
		}
		if s.notifier == nil {
			continue
		}
		_, err := s.notifier.Notify(ctx, core.NotificationInput{
			UserID:   b.UserID,
			Type:     "bill_reminder",
			Title:    "Upcoming bill",
			Body:     fmt.Sprintf("%s is due on %s", b.Title, core.DayKey(b.NextDueDate)),
			Priority: core.PriorityHigh,
			Data:     map[string]any{"bill_id": b.ID, "due_date": core.DayKey(b.NextDueDate)},
		})
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to send bill reminder",
				applog.FieldBillID, b.ID,
				applog.FieldUserID, b.UserID,
				applog.FieldError, err)
			continue
		}
		result.Reminders++
	}

	s.log.InfoContext(ctx, "Bill sweep complete",
		"overdue", result.Overdue,
		"reminders", result.Reminders,
		"checked", len(bills))
	return result, nil
}

// Run sweeps immediately, then on every tick until the context is canceled.
func (s *BillSweeper) Run(ctx context.Context, interval time.Duration) error {
	if _, err := s.Sweep(ctx, time.Now()); err != nil {
		s.log.ErrorContext(ctx, "Bill sweep failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if _, err := s.Sweep(ctx, now); err != nil {
				s.log.ErrorContext(ctx, "Bill sweep failed", applog.FieldError, err)
			}
		}
	}
}
