package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"finbook/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Type      core.TransactionType
	Category  string
	AccountID int64
	From      string // YYYY-MM-DD inclusive
	To        string // YYYY-MM-DD inclusive
	Limit     int
	Offset    int
}

func (r *Repository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	tags, err := encodeStrings(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, account_id, type, amount_cents, category, tags, occurred_on, source, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, t.Type, t.Amount.Cents, t.Category, tags,
		core.DayKey(t.OccurredOn), t.Source, t.Note)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create transaction id: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, type, amount_cents, category, tags, occurred_on, source, note, created_at, updated_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, account_id, type, amount_cents, category, tags, occurred_on, source, note, created_at, updated_at
	          FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, f.Type)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.AccountID != 0 {
		query += ` AND account_id = ?`
		args = append(args, f.AccountID)
	}
	if f.From != "" {
		query += ` AND occurred_on >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		query += ` AND occurred_on <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY occurred_on DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *Repository) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	tags, err := encodeStrings(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = ?, type = ?, amount_cents = ?, category = ?, tags = ?,
		     occurred_on = ?, source = ?, note = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		t.AccountID, t.Type, t.Amount.Cents, t.Category, tags,
		core.DayKey(t.OccurredOn), t.Source, t.Note, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// SumExpensesByPeriod issues one grouped query: total expense amounts per
// (category, period) pair, where the period is occurred_on truncated to the
// given granularity. Categories and periods bound the scan to the keys the
// caller actually needs.
func (r *Repository) SumExpensesByPeriod(ctx context.Context, userID int64, granularity core.DurationType, categories, periods []string) (map[core.PeriodKey]int64, error) {
	if len(categories) == 0 || len(periods) == 0 {
		return map[core.PeriodKey]int64{}, nil
	}

	// occurred_on is YYYY-MM-DD text; the first 7 chars are the month key.
	prefixLen := 7
	if granularity == core.DurationDay {
		prefixLen = 10
	}

	query := fmt.Sprintf(
		`SELECT category, substr(occurred_on, 1, %d) AS period, SUM(amount_cents)
		 FROM transactions
		 WHERE user_id = ? AND type = 'expense'
		   AND category IN (%s)
		   AND substr(occurred_on, 1, %d) IN (%s)
		 GROUP BY category, period`,
		prefixLen, placeholders(len(categories)), prefixLen, placeholders(len(periods)))

	args := make([]any, 0, 1+len(categories)+len(periods))
	args = append(args, userID)
	for _, c := range categories {
		args = append(args, c)
	}
	for _, p := range periods {
		args = append(args, p)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum expenses by period: %w", err)
	}
	defer rows.Close()

	totals := make(map[core.PeriodKey]int64)
	for rows.Next() {
		var (
			key core.PeriodKey
			sum int64
		)
		if err := rows.Scan(&key.Category, &key.Period, &sum); err != nil {
			return nil, fmt.Errorf("scan expense sum: %w", err)
		}
		totals[key] = sum
	}
	return totals, rows.Err()
}

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		t          core.Transaction
		accountID  sql.NullInt64
		tags       string
		occurredOn string
	)
	err := scan(&t.ID, &t.UserID, &accountID, &t.Type, &t.Amount.Cents, &t.Category,
		&tags, &occurredOn, &t.Source, &t.Note, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	if accountID.Valid {
		t.AccountID = &accountID.Int64
	}
	if t.Tags, err = decodeStrings(tags); err != nil {
		return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
	}
	if t.OccurredOn, err = core.ParseDayKey(occurredOn); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func encodeStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	return string(b), err
}

func decodeStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	err := json.Unmarshal([]byte(s), &out)
	return out, err
}
