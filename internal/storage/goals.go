package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"
)

func (r *Repository) CreateGoal(ctx context.Context, g *core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, title, target_cents, current_cents, start_date, end_date, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Target.Cents, g.Current.Cents,
		core.DayKey(g.StartDate), core.DayKey(g.EndDate), g.Priority)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create goal id: %w", err)
	}
	return nil
}

func (r *Repository) GetGoal(ctx context.Context, id, userID int64) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, start_date, end_date, priority, created_at, updated_at
		 FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	return g, err
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, target_cents, current_cents, start_date, end_date, priority, created_at, updated_at
		 FROM goals WHERE user_id = ? ORDER BY end_date ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g *core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals
		 SET title = ?, target_cents = ?, current_cents = ?, start_date = ?, end_date = ?,
		     priority = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		g.Title, g.Target.Cents, g.Current.Cents,
		core.DayKey(g.StartDate), core.DayKey(g.EndDate), g.Priority, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGoal(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func scanGoal(scan func(dest ...any) error) (core.Goal, error) {
	var (
		g     core.Goal
		start string
		end   string
	)
	err := scan(&g.ID, &g.UserID, &g.Title, &g.Target.Cents, &g.Current.Cents,
		&start, &end, &g.Priority, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, err
		}
		return core.Goal{}, fmt.Errorf("scan goal: %w", err)
	}
	if g.StartDate, err = core.ParseDayKey(start); err != nil {
		return core.Goal{}, err
	}
	if g.EndDate, err = core.ParseDayKey(end); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}
