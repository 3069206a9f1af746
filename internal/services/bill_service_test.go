package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbook/internal/core"
)

type fakeBillStore struct {
	bills    map[int64]core.Bill
	payments []core.BillPayment
	nextID   int64

	paymentErr error
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{bills: make(map[int64]core.Bill)}
}

func (f *fakeBillStore) CreateBill(_ context.Context, b *core.Bill) error {
	f.nextID++
	b.ID = f.nextID
	f.bills[b.ID] = *b
	return nil
}

func (f *fakeBillStore) GetBill(_ context.Context, id, userID int64) (core.Bill, error) {
	b, ok := f.bills[id]
	if !ok || b.UserID != userID {
		return core.Bill{}, core.ErrNotFound
	}
	return b, nil
}

func (f *fakeBillStore) ListBills(_ context.Context, userID int64, status core.BillStatus) ([]core.Bill, error) {
	var out []core.Bill
	for _, b := range f.bills {
		if b.UserID == userID && (status == "" || b.Status == status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBillStore) UpdateBill(_ context.Context, b *core.Bill) error {
	if _, ok := f.bills[b.ID]; !ok {
		return core.ErrNotFound
	}
	f.bills[b.ID] = *b
	return nil
}

func (f *fakeBillStore) DeleteBill(_ context.Context, id, _ int64) error {
	delete(f.bills, id)
	return nil
}

func (f *fakeBillStore) AddBillPayment(_ context.Context, p *core.BillPayment) error {
	if f.paymentErr != nil {
		return f.paymentErr
	}
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakeBillStore) CountBillsByStatus(_ context.Context, userID int64) (map[core.BillStatus]int64, error) {
	counts := make(map[core.BillStatus]int64)
	for _, b := range f.bills {
		if b.UserID == userID {
			counts[b.Status]++
		}
	}
	return counts, nil
}

func (f *fakeBillStore) ListPendingBillsDueBetween(_ context.Context, from, to time.Time) ([]core.Bill, error) {
	var out []core.Bill
	for _, b := range f.bills {
		if b.Status == core.BillPending && !b.NextDueDate.Before(from) && !b.NextDueDate.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	inputs []core.NotificationInput
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, in core.NotificationInput) (core.Notification, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return core.Notification{}, f.err
	}
	return core.Notification{ID: int64(len(f.inputs)), UserID: in.UserID, Type: in.Type}, nil
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBillCreateDefaults(t *testing.T) {
	store := newFakeBillStore()
	notifier := &fakeNotifier{}
	svc := NewBillService(store, notifier)

	bill, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Rent",
		Amount:  core.Money{Cents: 120000},
		DueDate: day("2024-07-01"),
	})
	require.NoError(t, err)

	assert.Equal(t, core.Monthly, bill.Frequency)
	assert.True(t, bill.Recurring)
	assert.Equal(t, 3, bill.ReminderDays)
	assert.Equal(t, core.BillPending, bill.Status)
	assert.Equal(t, bill.DueDate, bill.NextDueDate, "cursor starts at the due date")

	require.Len(t, notifier.inputs, 1)
	assert.Equal(t, "bill_created", notifier.inputs[0].Type)
}

func TestBillCreateOneTimeForcesNonRecurring(t *testing.T) {
	svc := NewBillService(newFakeBillStore(), nil)

	bill, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:     "Car registration",
		Amount:    core.Money{Cents: 15000},
		DueDate:   day("2024-09-01"),
		Frequency: core.OneTime,
		Recurring: boolPtr(true),
	})
	require.NoError(t, err)
	assert.False(t, bill.Recurring, "one-time overrides the caller's recurring flag")
}

func TestBillCreateValidation(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	tests := []struct {
		name  string
		input CreateBillInput
	}{
		{"missing title", CreateBillInput{Amount: core.Money{Cents: 100}, DueDate: day("2024-07-01")}},
		{"zero amount", CreateBillInput{Title: "x", DueDate: day("2024-07-01")}},
		{"missing due date", CreateBillInput{Title: "x", Amount: core.Money{Cents: 100}}},
		{"bad frequency", CreateBillInput{Title: "x", Amount: core.Money{Cents: 100}, DueDate: day("2024-07-01"), Frequency: "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.input)
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
		})
	}
	assert.Empty(t, store.bills)
}

func TestMarkPaidRecurringAdvancesCursor(t *testing.T) {
	store := newFakeBillStore()
	notifier := &fakeNotifier{}
	svc := NewBillService(store, notifier)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, core.BillPending, paid.Status, "recurring bill resets to pending")
	assert.Equal(t, "2024-02-10", core.DayKey(paid.NextDueDate))
	assert.Equal(t, "2024-01-10", core.DayKey(paid.DueDate), "anchor never moves")

	require.Len(t, store.payments, 1)
	assert.Equal(t, created.ID, store.payments[0].BillID)
	assert.Equal(t, int64(4500), store.payments[0].Amount.Cents)

	// bill_created then bill_paid
	require.Len(t, notifier.inputs, 2)
	assert.Equal(t, "bill_paid", notifier.inputs[1].Type)
}

func TestMarkPaidOneTimeIsTerminal(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:     "Car registration",
		Amount:    core.Money{Cents: 15000},
		DueDate:   day("2024-09-01"),
		Frequency: core.OneTime,
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, core.BillPaid, paid.Status)
	assert.Equal(t, "2024-09-01", core.DayKey(paid.NextDueDate), "cursor stays put")
}

func TestMarkPaidNonRecurringIsTerminal(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:     "Final installment",
		Amount:    core.Money{Cents: 5000},
		DueDate:   day("2024-03-15"),
		Frequency: core.Monthly,
		Recurring: boolPtr(false),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, core.BillPaid, paid.Status)
	assert.Equal(t, "2024-03-15", core.DayKey(paid.NextDueDate))
}

func TestMarkPaidSurvivesPaymentRecordFailure(t *testing.T) {
	store := newFakeBillStore()
	store.paymentErr = errors.New("payments table locked")
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err, "payment history is best-effort")
	assert.Equal(t, "2024-02-10", core.DayKey(paid.NextDueDate))
}

func TestSetStatusManualOverride(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	overdue, err := svc.SetStatus(context.Background(), created.ID, 1, core.BillOverdue)
	require.NoError(t, err)
	assert.Equal(t, core.BillOverdue, overdue.Status)
	assert.Equal(t, "2024-01-10", core.DayKey(overdue.NextDueDate), "manual override does not touch the cursor")
	assert.Empty(t, store.payments)
}

func TestSetStatusSelfHealsMissingCursor(t *testing.T) {
	store := newFakeBillStore()
	store.nextID = 1
	store.bills[1] = core.Bill{
		ID: 1, UserID: 1, Title: "Legacy", Amount: core.Money{Cents: 1000},
		DueDate: day("2024-05-01"), Frequency: core.Monthly, Recurring: true,
		Status: core.BillPending,
	}
	svc := NewBillService(store, nil)

	paid, err := svc.MarkPaid(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", core.DayKey(paid.NextDueDate), "advance from the due date when the cursor was never set")
}

func TestSetStatusUnknownBill(t *testing.T) {
	svc := NewBillService(newFakeBillStore(), nil)
	_, err := svc.MarkPaid(context.Background(), 42, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSetStatusWrongOwner(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), created.ID, 2)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBillUpdateOneTimeForcesNonRecurring(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, 1, CreateBillInput{
		Title:     "Internet",
		Amount:    core.Money{Cents: 4500},
		DueDate:   day("2024-01-10"),
		Frequency: core.OneTime,
		Recurring: boolPtr(true),
	})
	require.NoError(t, err)
	assert.False(t, updated.Recurring)
}

func TestBillUpdatePreservesLifecycleState(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Rent",
		Amount:  core.Money{Cents: 120000},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err)
	require.Equal(t, day("2024-02-10"), paid.NextDueDate)

	// A plain rename must not touch status or the advanced cursor.
	updated, err := svc.Update(context.Background(), created.ID, 1, CreateBillInput{
		Title:     "Rent (new landlord)",
		Amount:    core.Money{Cents: 125000},
		DueDate:   day("2024-01-10"),
		Frequency: core.Monthly,
	})
	require.NoError(t, err)
	assert.Equal(t, core.BillPending, updated.Status)
	assert.Equal(t, day("2024-02-10"), updated.NextDueDate)
	assert.Equal(t, int64(125000), updated.Amount.Cents)

	stored, err := store.GetBill(context.Background(), created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, core.BillPending, stored.Status)
	assert.Equal(t, day("2024-02-10"), stored.NextDueDate)
}

func TestBillUpdateMovedDueDateResetsCursor(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Rent",
		Amount:  core.Money{Cents: 120000},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), created.ID, 1)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, 1, CreateBillInput{
		Title:   "Rent",
		Amount:  core.Money{Cents: 120000},
		DueDate: day("2024-03-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-01"), updated.DueDate)
	assert.Equal(t, day("2024-03-01"), updated.NextDueDate)
}

func TestBillUpdateWrongOwner(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)

	created, err := svc.Create(context.Background(), 1, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, 2, CreateBillInput{
		Title:   "Internet",
		Amount:  core.Money{Cents: 4500},
		DueDate: day("2024-01-10"),
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBillSummaryUpcomingWindow(t *testing.T) {
	store := newFakeBillStore()
	svc := NewBillService(store, nil)
	now := day("2024-06-10")
	svc.now = func() time.Time { return now }

	mk := func(title string, due string, reminderDays int) {
		_, err := svc.Create(context.Background(), 1, CreateBillInput{
			Title:        title,
			Amount:       core.Money{Cents: 1000},
			DueDate:      day(due),
			ReminderDays: intPtr(reminderDays),
		})
		require.NoError(t, err)
	}
	mk("inside window", "2024-06-12", 3)
	mk("outside window", "2024-06-20", 3)
	mk("wide window", "2024-06-20", 15)

	summary, err := svc.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Pending)
	require.Len(t, summary.Upcoming, 2)
	titles := []string{summary.Upcoming[0].Title, summary.Upcoming[1].Title}
	assert.ElementsMatch(t, []string{"inside window", "wide window"}, titles)
}
