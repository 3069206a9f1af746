package core

import "errors"

// ErrNotFound reports that a document does not exist for the given id and owner.
var ErrNotFound = errors.New("not found")

// ValidationError marks input the caller can correct. Operations abort before
// any write when validation fails.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError with the given message.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrInvalidAmount = Invalid("invalid amount")
	ErrEmptyTitle    = Invalid("empty title")
	ErrEmptyCategory = Invalid("empty category")
	ErrInvalidDate   = Invalid("invalid date")
)
