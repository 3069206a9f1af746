package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"finbook/internal/core"
)

func (r *Repository) CreateNotification(ctx context.Context, n *core.Notification) error {
	// The priority invariant holds at persistence time, not only in the
	// dispatcher, so direct callers still get a valid row.
	if n.Priority == "" {
		n.Priority = core.PriorityMedium
	}
	data, err := json.Marshal(orEmptyMap(n.Data))
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	delivered, err := encodeStrings(n.Delivered)
	if err != nil {
		return fmt.Errorf("encode delivered channels: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, data, priority, is_read, delivered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Body, string(data), n.Priority, n.Read, delivered)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create notification id: %w", err)
	}
	return nil
}

func (r *Repository) GetNotification(ctx context.Context, id, userID int64) (core.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, title, body, data, priority, is_read, read_at, delivered, created_at
		 FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNotification(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Notification{}, core.ErrNotFound
	}
	return n, err
}

func (r *Repository) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]core.Notification, error) {
	query := `SELECT id, user_id, type, title, body, data, priority, is_read, read_at, delivered, created_at
	          FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, read_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1, read_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (r *Repository) DeleteNotification(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireRow(res)
}

// AppendDeliveredChannel records one delivery channel on the notification.
// The delivered log is append-only; duplicates are skipped.
func (r *Repository) AppendDeliveredChannel(ctx context.Context, id int64, channel string) error {
	var delivered string
	err := r.db.QueryRowContext(ctx,
		`SELECT delivered FROM notifications WHERE id = ?`, id).Scan(&delivered)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read delivered channels: %w", err)
	}

	channels, err := decodeStrings(delivered)
	if err != nil {
		return fmt.Errorf("decode delivered channels: %w", err)
	}
	for _, c := range channels {
		if c == channel {
			return nil
		}
	}
	channels = append(channels, channel)

	encoded, err := encodeStrings(channels)
	if err != nil {
		return fmt.Errorf("encode delivered channels: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET delivered = ? WHERE id = ?`, encoded, id); err != nil {
		return fmt.Errorf("append delivered channel: %w", err)
	}
	return nil
}

func scanNotification(scan func(dest ...any) error) (core.Notification, error) {
	var (
		n         core.Notification
		data      string
		readAt    sql.NullTime
		delivered string
	)
	err := scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.Priority,
		&n.Read, &readAt, &delivered, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Notification{}, err
		}
		return core.Notification{}, fmt.Errorf("scan notification: %w", err)
	}
	if readAt.Valid {
		n.ReadAt = &readAt.Time
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return core.Notification{}, fmt.Errorf("decode notification data: %w", err)
		}
	}
	if n.Delivered, err = decodeStrings(delivered); err != nil {
		return core.Notification{}, fmt.Errorf("decode delivered channels: %w", err)
	}
	return n, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
