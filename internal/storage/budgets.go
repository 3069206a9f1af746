package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finbook/internal/core"
)

// BudgetFilter narrows ListBudgets before spend aggregation runs.
type BudgetFilter struct {
	Category       string // exact match
	CategorySearch string // substring match
	Month          string // exact month key
	MinLimitCents  int64
	MaxLimitCents  int64
	CreatedAfter   time.Time
}

func (r *Repository) CreateBudget(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, duration_type, month, day, duration, limit_cents, spent_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Category, b.DurationType, b.Month, b.Day, b.Duration,
		b.Limit.Cents, b.Spent.Cents)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create budget id: %w", err)
	}
	return nil
}

func (r *Repository) GetBudget(ctx context.Context, id, userID int64) (core.Budget, error) {
	var b core.Budget
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, duration_type, month, day, duration, limit_cents, spent_cents, created_at, updated_at
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&b.ID, &b.UserID, &b.Category, &b.DurationType, &b.Month, &b.Day,
			&b.Duration, &b.Limit.Cents, &b.Spent.Cents, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64, f BudgetFilter) ([]core.Budget, error) {
	query := `SELECT id, user_id, category, duration_type, month, day, duration, limit_cents, spent_cents, created_at, updated_at
	          FROM budgets WHERE user_id = ?`
	args := []any{userID}

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.CategorySearch != "" {
		query += ` AND category LIKE ?`
		args = append(args, "%"+f.CategorySearch+"%")
	}
	if f.Month != "" {
		query += ` AND month = ?`
		args = append(args, f.Month)
	}
	if f.MinLimitCents > 0 {
		query += ` AND limit_cents >= ?`
		args = append(args, f.MinLimitCents)
	}
	if f.MaxLimitCents > 0 {
		query += ` AND limit_cents <= ?`
		args = append(args, f.MaxLimitCents)
	}
	if !f.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.DurationType, &b.Month,
			&b.Day, &b.Duration, &b.Limit.Cents, &b.Spent.Cents,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets
		 SET category = ?, duration_type = ?, month = ?, day = ?, duration = ?,
		     limit_cents = ?, spent_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		b.Category, b.DurationType, b.Month, b.Day, b.Duration,
		b.Limit.Cents, b.Spent.Cents, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBudget(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}
