package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finbook/internal/core"
)

func (r *Repository) CreateBill(ctx context.Context, b *core.Bill) error {
	// The cursor invariant holds at persistence time, not only at
	// construction, so callers that skip the engine still get a valid row.
	if b.NextDueDate.IsZero() {
		b.NextDueDate = b.DueDate
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (user_id, title, amount_cents, category, due_date, frequency, recurring, reminder_days, status, next_due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Title, b.Amount.Cents, b.Category, core.DayKey(b.DueDate),
		b.Frequency, b.Recurring, b.ReminderDays, b.Status, core.DayKey(b.NextDueDate))
	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create bill id: %w", err)
	}
	return nil
}

func (r *Repository) GetBill(ctx context.Context, id, userID int64) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, due_date, frequency, recurring, reminder_days, status, next_due_date, created_at, updated_at
		 FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBill(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	return b, err
}

func (r *Repository) ListBills(ctx context.Context, userID int64, status core.BillStatus) ([]core.Bill, error) {
	query := `SELECT id, user_id, title, amount_cents, category, due_date, frequency, recurring, reminder_days, status, next_due_date, created_at, updated_at
	          FROM bills WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY next_due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()
	return collectBills(rows)
}

func (r *Repository) UpdateBill(ctx context.Context, b *core.Bill) error {
	if b.NextDueDate.IsZero() {
		b.NextDueDate = b.DueDate
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills
		 SET title = ?, amount_cents = ?, category = ?, due_date = ?, frequency = ?,
		     recurring = ?, reminder_days = ?, status = ?, next_due_date = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		b.Title, b.Amount.Cents, b.Category, core.DayKey(b.DueDate), b.Frequency,
		b.Recurring, b.ReminderDays, b.Status, core.DayKey(b.NextDueDate),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBill(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) AddBillPayment(ctx context.Context, p *core.BillPayment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bill_payments (bill_id, paid_at, amount_cents) VALUES (?, ?, ?)`,
		p.BillID, p.PaidAt, p.Amount.Cents)
	if err != nil {
		return fmt.Errorf("add bill payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add bill payment id: %w", err)
	}
	return nil
}

func (r *Repository) ListBillPayments(ctx context.Context, billID, userID int64) ([]core.BillPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.bill_id, p.paid_at, p.amount_cents
		 FROM bill_payments p
		 JOIN bills b ON b.id = p.bill_id
		 WHERE p.bill_id = ? AND b.user_id = ?
		 ORDER BY p.paid_at DESC`, billID, userID)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	defer rows.Close()

	var payments []core.BillPayment
	for rows.Next() {
		var p core.BillPayment
		if err := rows.Scan(&p.ID, &p.BillID, &p.PaidAt, &p.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan bill payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkBillsOverdue flips pending bills whose cursor is strictly before asOf to
// overdue, across all users. Returns the number of rows changed.
func (r *Repository) MarkBillsOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET status = 'overdue', updated_at = CURRENT_TIMESTAMP
		 WHERE status = 'pending' AND next_due_date < ?`, core.DayKey(asOf))
	if err != nil {
		return 0, fmt.Errorf("mark bills overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ListPendingBillsDueBetween returns pending bills for every user whose cursor
// falls in [from, to], for reminder dispatch.
func (r *Repository) ListPendingBillsDueBetween(ctx context.Context, from, to time.Time) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, amount_cents, category, due_date, frequency, recurring, reminder_days, status, next_due_date, created_at, updated_at
		 FROM bills
		 WHERE status = 'pending' AND next_due_date >= ? AND next_due_date <= ?
		 ORDER BY next_due_date ASC`, core.DayKey(from), core.DayKey(to))
	if err != nil {
		return nil, fmt.Errorf("list pending bills due between: %w", err)
	}
	defer rows.Close()
	return collectBills(rows)
}

// CountBillsByStatus returns per-status counts for one user's bills.
func (r *Repository) CountBillsByStatus(ctx context.Context, userID int64) (map[core.BillStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM bills WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("count bills by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[core.BillStatus]int64)
	for rows.Next() {
		var (
			status core.BillStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan bill count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func collectBills(rows *sql.Rows) ([]core.Bill, error) {
	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func scanBill(scan func(dest ...any) error) (core.Bill, error) {
	var (
		b       core.Bill
		due     string
		nextDue string
	)
	err := scan(&b.ID, &b.UserID, &b.Title, &b.Amount.Cents, &b.Category, &due,
		&b.Frequency, &b.Recurring, &b.ReminderDays, &b.Status, &nextDue,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Bill{}, err
		}
		return core.Bill{}, fmt.Errorf("scan bill: %w", err)
	}
	if b.DueDate, err = core.ParseDayKey(due); err != nil {
		return core.Bill{}, err
	}
	if b.NextDueDate, err = core.ParseDayKey(nextDue); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}
