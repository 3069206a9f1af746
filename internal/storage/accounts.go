package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"
)

var ErrDuplicateAccountNumber = core.Invalid("account number already in use")

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, type, number, bank_name, balance_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		a.UserID, a.Type, a.Number, a.BankName, a.Balance.Cents)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccountNumber
		}
		return fmt.Errorf("create account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create account id: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id, userID int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, number, bank_name, balance_cents, created_at, updated_at
		 FROM accounts WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Type, &a.Number, &a.BankName, &a.Balance.Cents,
			&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, number, bank_name, balance_cents, created_at, updated_at
		 FROM accounts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Number, &a.BankName,
			&a.Balance.Cents, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *Repository) UpdateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET type = ?, number = ?, bank_name = ?, balance_cents = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		a.Type, a.Number, a.BankName, a.Balance.Cents, a.ID, a.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAccountNumber
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteAccount(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}
