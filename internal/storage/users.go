package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finbook/internal/core"
)

// ErrDuplicateEmail reports a register attempt with an email that is already
// taken (matched case-insensitively; emails are stored lowercased).
var ErrDuplicateEmail = core.Invalid("email already registered")

func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash,
		        otp_code, otp_expires_at, otp_attempts_left, otp_last_attempt_at,
		        created_at, updated_at
		 FROM users WHERE id = ?`, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash,
		        otp_code, otp_expires_at, otp_attempts_left, otp_last_attempt_at,
		        created_at, updated_at
		 FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))))
}

func (r *Repository) scanUser(row *sql.Row) (core.User, error) {
	var (
		u             core.User
		otpCode       sql.NullString
		otpExpires    sql.NullTime
		otpAttempts   sql.NullInt64
		otpLastTry    sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&otpCode, &otpExpires, &otpAttempts, &otpLastTry,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	if otpCode.Valid && otpCode.String != "" {
		u.ResetOTP = &core.ResetOTP{
			Code:          otpCode.String,
			ExpiresAt:     otpExpires.Time,
			AttemptsLeft:  int(otpAttempts.Int64),
			LastAttemptAt: otpLastTry.Time,
		}
	}
	return u, nil
}

func (r *Repository) SetResetOTP(ctx context.Context, userID int64, otp core.ResetOTP) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET otp_code = ?, otp_expires_at = ?, otp_attempts_left = ?, otp_last_attempt_at = NULL,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		otp.Code, otp.ExpiresAt, otp.AttemptsLeft, userID)
	if err != nil {
		return fmt.Errorf("set reset otp: %w", err)
	}
	return requireRow(res)
}

// ConsumeOTPAttempt decrements the remaining attempts and stamps the try.
func (r *Repository) ConsumeOTPAttempt(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET otp_attempts_left = otp_attempts_left - 1, otp_last_attempt_at = CURRENT_TIMESTAMP,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND otp_attempts_left > 0`, userID)
	if err != nil {
		return fmt.Errorf("consume otp attempt: %w", err)
	}
	return requireRow(res)
}

// ClearResetOTP removes the OTP sub-record, optionally rotating the password
// hash in the same statement.
func (r *Repository) ClearResetOTP(ctx context.Context, userID int64, newPasswordHash []byte) error {
	var (
		res sql.Result
		err error
	)
	if newPasswordHash != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE users
			 SET password_hash = ?, otp_code = NULL, otp_expires_at = NULL,
			     otp_attempts_left = 0, otp_last_attempt_at = NULL,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`, newPasswordHash, userID)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE users
			 SET otp_code = NULL, otp_expires_at = NULL,
			     otp_attempts_left = 0, otp_last_attempt_at = NULL,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`, userID)
	}
	if err != nil {
		return fmt.Errorf("clear reset otp: %w", err)
	}
	return requireRow(res)
}

// requireRow maps zero affected rows to core.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
