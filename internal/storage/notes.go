package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"
)

func (r *Repository) CreateNote(ctx context.Context, n *core.Note) error {
	tags, err := encodeStrings(n.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (user_id, title, content, tags, pinned) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Content, tags, n.Pinned)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	n.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create note id: %w", err)
	}
	return nil
}

func (r *Repository) GetNote(ctx context.Context, id, userID int64) (core.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, tags, pinned, created_at, updated_at
		 FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Note{}, core.ErrNotFound
	}
	return n, err
}

func (r *Repository) ListNotes(ctx context.Context, userID int64) ([]core.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, content, tags, pinned, created_at, updated_at
		 FROM notes WHERE user_id = ? ORDER BY pinned DESC, updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *Repository) UpdateNote(ctx context.Context, n *core.Note) error {
	tags, err := encodeStrings(n.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes
		 SET title = ?, content = ?, tags = ?, pinned = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		n.Title, n.Content, tags, n.Pinned, n.ID, n.UserID)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteNote(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireRow(res)
}

func scanNote(scan func(dest ...any) error) (core.Note, error) {
	var (
		n    core.Note
		tags string
	)
	err := scan(&n.ID, &n.UserID, &n.Title, &n.Content, &tags, &n.Pinned,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Note{}, err
		}
		return core.Note{}, fmt.Errorf("scan note: %w", err)
	}
	if n.Tags, err = decodeStrings(tags); err != nil {
		return core.Note{}, fmt.Errorf("decode tags: %w", err)
	}
	return n, nil
}
