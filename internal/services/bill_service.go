package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finbook/internal/core"
	applog "finbook/internal/log"
)

// Notifier is the dispatcher capability the services invoke as a side effect.
type Notifier interface {
	Notify(ctx context.Context, in core.NotificationInput) (core.Notification, error)
}

// BillStore is the slice of persistence the lifecycle engine needs.
type BillStore interface {
	CreateBill(ctx context.Context, b *core.Bill) error
	GetBill(ctx context.Context, id, userID int64) (core.Bill, error)
	ListBills(ctx context.Context, userID int64, status core.BillStatus) ([]core.Bill, error)
	UpdateBill(ctx context.Context, b *core.Bill) error
	DeleteBill(ctx context.Context, id, userID int64) error
	AddBillPayment(ctx context.Context, p *core.BillPayment) error
	CountBillsByStatus(ctx context.Context, userID int64) (map[core.BillStatus]int64, error)
	ListPendingBillsDueBetween(ctx context.Context, from, to time.Time) ([]core.Bill, error)
}

// CreateBillInput is the creation request shape. Optional fields default per
// the lifecycle rules.
type CreateBillInput struct {
	Title        string
	Amount       core.Money
	Category     string
	DueDate      time.Time
	Frequency    core.Frequency
	Recurring    *bool
	ReminderDays *int
}

type BillService struct {
	store    BillStore
	notifier Notifier
	now      func() time.Time
	log      *applog.Logger
}

func NewBillService(store BillStore, notifier Notifier) *BillService {
	return &BillService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		log:      applog.Default(applog.ComponentBill),
	}
}

// Create applies creation defaults and persists the bill. A one-time
// frequency forces recurring off regardless of the caller's input.
func (s *BillService) Create(ctx context.Context, userID int64, in CreateBillInput) (core.Bill, error) {
	if strings.TrimSpace(in.Title) == "" {
		return core.Bill{}, core.ErrEmptyTitle
	}
	if in.Amount.Cents <= 0 {
		return core.Bill{}, core.ErrInvalidAmount
	}
	if in.DueDate.IsZero() {
		return core.Bill{}, core.Invalid("due date is required")
	}

	frequency := in.Frequency
	if frequency == "" {
		frequency = core.Monthly
	}
	recurring := true
	if in.Recurring != nil {
		recurring = *in.Recurring
	}
	if frequency == core.OneTime {
		recurring = false
	}
	reminderDays := 3
	if in.ReminderDays != nil {
		reminderDays = *in.ReminderDays
	}

	b := core.Bill{
		UserID:       userID,
		Title:        strings.TrimSpace(in.Title),
		Amount:       in.Amount,
		Category:     strings.TrimSpace(in.Category),
		DueDate:      in.DueDate,
		Frequency:    frequency,
		Recurring:    recurring,
		ReminderDays: reminderDays,
		Status:       core.BillPending,
		NextDueDate:  in.DueDate,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.CreateBill(ctx, &b); err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}

	s.notifyBestEffort(ctx, core.NotificationInput{
		UserID: userID,
		Type:   "bill_created",
		Title:  "Bill added",
		Body:   fmt.Sprintf("%s due %s", b.Title, core.DayKey(b.NextDueDate)),
		Data:   map[string]any{"bill_id": b.ID},
	})
	return b, nil
}

// MarkPaid runs the paid transition for the bill.
func (s *BillService) MarkPaid(ctx context.Context, billID, userID int64) (core.Bill, error) {
	return s.SetStatus(ctx, billID, userID, core.BillPaid)
}

// SetStatus applies a status change. "paid" drives the lifecycle state
// machine: a non-recurring or one-time bill becomes terminally paid, while a
// recurring bill advances its cursor by one frequency unit and resets to
// pending. Any other status value is applied verbatim as a manual override.
func (s *BillService) SetStatus(ctx context.Context, billID, userID int64, status core.BillStatus) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, billID, userID)
	if err != nil {
		return core.Bill{}, err
	}

	// Self-heal legacy rows missing the cursor.
	if b.NextDueDate.IsZero() {
		b.NextDueDate = b.DueDate
	}

	if status != core.BillPaid {
		b.Status = status
		if err := s.store.UpdateBill(ctx, &b); err != nil {
			return core.Bill{}, err
		}
		return b, nil
	}

	paidOn := b.NextDueDate
	if !b.Recurring || b.Frequency == core.OneTime {
		b.Status = core.BillPaid
	} else {
		base := b.NextDueDate
		if base.IsZero() {
			base = b.DueDate
		}
		b.NextDueDate = b.Frequency.Advance(base)
		b.Status = core.BillPending
	}

	if err := s.store.UpdateBill(ctx, &b); err != nil {
		return core.Bill{}, err
	}

	payment := core.BillPayment{BillID: b.ID, PaidAt: s.now(), Amount: b.Amount}
	if err := s.store.AddBillPayment(ctx, &payment); err != nil {
		s.log.WarnContext(ctx, "Failed to record bill payment",
			applog.FieldBillID, b.ID,
			applog.FieldError, err)
	}

	s.notifyBestEffort(ctx, core.NotificationInput{
		UserID: userID,
		Type:   "bill_paid",
		Title:  "Bill paid",
		Body:   fmt.Sprintf("%s paid for %s", b.Title, core.DayKey(paidOn)),
		Data:   map[string]any{"bill_id": b.ID, "next_due_date": core.DayKey(b.NextDueDate)},
	})
	return b, nil
}

func (s *BillService) Get(ctx context.Context, billID, userID int64) (core.Bill, error) {
	return s.store.GetBill(ctx, billID, userID)
}

func (s *BillService) List(ctx context.Context, userID int64, status core.BillStatus) ([]core.Bill, error) {
	return s.store.ListBills(ctx, userID, status)
}

func (s *BillService) Delete(ctx context.Context, billID, userID int64) error {
	return s.store.DeleteBill(ctx, billID, userID)
}

// Update rewrites the editable bill fields. Lifecycle state survives the
// edit: status and the due-date cursor come from the stored row, and the
// cursor resets only when the caller moves the due date.
func (s *BillService) Update(ctx context.Context, billID, userID int64, in CreateBillInput) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, billID, userID)
	if err != nil {
		return core.Bill{}, err
	}
	if b.NextDueDate.IsZero() {
		b.NextDueDate = b.DueDate
	}

	b.Title = strings.TrimSpace(in.Title)
	b.Amount = in.Amount
	b.Category = strings.TrimSpace(in.Category)
	if in.Frequency != "" {
		b.Frequency = in.Frequency
	}
	if in.Recurring != nil {
		b.Recurring = *in.Recurring
	}
	if in.ReminderDays != nil {
		b.ReminderDays = *in.ReminderDays
	}
	if !in.DueDate.IsZero() && core.DayKey(in.DueDate) != core.DayKey(b.DueDate) {
		b.DueDate = in.DueDate
		b.NextDueDate = in.DueDate
	}
	if b.Frequency == core.OneTime {
		b.Recurring = false
	}

	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.UpdateBill(ctx, &b); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

// BillSummary reports per-status counts plus upcoming bills inside each
// bill's own reminder window.
type BillSummary struct {
	Pending  int64       `json:"pending"`
	Paid     int64       `json:"paid"`
	Overdue  int64       `json:"overdue"`
	Upcoming []core.Bill `json:"upcoming"`
}

func (s *BillService) Summary(ctx context.Context, userID int64) (BillSummary, error) {
	counts, err := s.store.CountBillsByStatus(ctx, userID)
	if err != nil {
		return BillSummary{}, err
	}
	summary := BillSummary{
		Pending: counts[core.BillPending],
		Paid:    counts[core.BillPaid],
		Overdue: counts[core.BillOverdue],
	}

	pending, err := s.store.ListBills(ctx, userID, core.BillPending)
	if err != nil {
		return BillSummary{}, err
	}
	today := startOfDay(s.now())
	for _, b := range pending {
		window := today.AddDate(0, 0, b.ReminderDays)
		if !b.NextDueDate.Before(today) && !b.NextDueDate.After(window) {
			summary.Upcoming = append(summary.Upcoming, b)
		}
	}
	return summary, nil
}

func (s *BillService) notifyBestEffort(ctx context.Context, in core.NotificationInput) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, in); err != nil {
		s.log.WarnContext(ctx, "Bill notification failed",
			applog.FieldUserID, in.UserID,
			"type", in.Type,
			applog.FieldError, err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
