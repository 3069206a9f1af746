package core

import (
	"strings"
	"time"
)

const (
	OneTime Frequency = "one-time"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

const (
	DurationMonth DurationType = "month"
	DurationDay   DurationType = "day"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	SourceManual    TransactionSource = "manual"
	SourceAutomatic TransactionSource = "automatic"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type (
	Frequency         string
	BillStatus        string
	DurationType      string
	TransactionType   string
	TransactionSource string
	Priority          string

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash []byte
		ResetOTP     *ResetOTP
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// ResetOTP is the password-reset sub-record on a User.
	ResetOTP struct {
		Code          string
		ExpiresAt     time.Time
		AttemptsLeft  int
		LastAttemptAt time.Time
	}

	Account struct {
		ID        int64
		UserID    int64
		Type      string
		Number    string
		BankName  string
		Balance   Money
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID         int64
		UserID     int64
		AccountID  *int64
		Type       TransactionType
		Amount     Money
		Category   string
		Tags       []string
		OccurredOn time.Time
		Source     TransactionSource
		Note       string
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Budget scopes a limit to a category and a period: a calendar month when
	// DurationType is month, a single day when DurationType is day. Spent is
	// not authoritative; it is recomputed from transactions at read time and
	// the stored value only serves as a fallback.
	Budget struct {
		ID           int64
		UserID       int64
		Category     string
		DurationType DurationType
		Month        string // "YYYY-MM", set when DurationType is month
		Day          string // "YYYY-MM-DD", set when DurationType is day
		Duration     int    // number of months covered
		Limit        Money
		Spent        Money
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Goal struct {
		ID        int64
		UserID    int64
		Title     string
		Target    Money
		Current   Money
		StartDate time.Time
		EndDate   time.Time
		Priority  Priority
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Bill carries two dates: DueDate is the original schedule anchor and
	// never moves; NextDueDate is the cursor the lifecycle engine advances.
	Bill struct {
		ID           int64
		UserID       int64
		Title        string
		Amount       Money
		Category     string
		DueDate      time.Time
		Frequency    Frequency
		Recurring    bool
		ReminderDays int
		Status       BillStatus
		NextDueDate  time.Time
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	BillPayment struct {
		ID     int64
		BillID int64
		PaidAt time.Time
		Amount Money
	}

	Note struct {
		ID        int64
		UserID    int64
		Title     string
		Content   string
		Tags      []string
		Pinned    bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Notification is immutable after creation except for the read state and
	// the delivered-channels log.
	Notification struct {
		ID        int64
		UserID    int64
		Type      string
		Title     string
		Body      string
		Data      map[string]any
		Priority  Priority
		Read      bool
		ReadAt    *time.Time
		Delivered []string
		CreatedAt time.Time
	}

	// NotificationInput is the dispatcher's request shape.
	NotificationInput struct {
		UserID   int64
		Type     string
		Title    string
		Body     string
		Data     map[string]any
		Priority Priority
	}
)

func (f Frequency) Valid() bool {
	switch f {
	case OneTime, Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Advance returns t moved forward by one unit of the frequency. One-time has
// no unit and returns t unchanged.
func (f Frequency) Advance(t time.Time) time.Time {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1)
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	case Yearly:
		return t.AddDate(1, 0, 0)
	}
	return t
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Type != Income && t.Type != Expense {
		return Invalid("invalid transaction type")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.OccurredOn.IsZero() {
		return ErrInvalidDate
	}
	if t.Source != SourceManual && t.Source != SourceAutomatic {
		return Invalid("invalid transaction source")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.DurationType != DurationMonth && b.DurationType != DurationDay {
		return Invalid("invalid duration type")
	}
	// Multi-month budgets are only allowed at day granularity.
	if b.Duration > 12 && b.DurationType != DurationDay {
		return Invalid("budgets longer than 12 months require day granularity")
	}
	switch b.DurationType {
	case DurationMonth:
		if _, err := ParseMonthKey(b.Month); err != nil {
			return Invalid("invalid month, want YYYY-MM")
		}
	case DurationDay:
		if _, err := ParseDayKey(b.Day); err != nil {
			return Invalid("invalid day, want YYYY-MM-DD")
		}
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	return nil
}

// PeriodValue returns the budget's period key at its own granularity.
func (b Budget) PeriodValue() string {
	if b.DurationType == DurationDay {
		return b.Day
	}
	return b.Month
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.Target.Cents <= 0 {
		return Invalid("target must be positive")
	}
	if g.Current.Cents < 0 || g.Current.Cents > g.Target.Cents {
		return Invalid("current must be between 0 and target")
	}
	if g.StartDate.IsZero() || g.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if !g.StartDate.Before(g.EndDate) {
		return Invalid("start date must be before end date")
	}
	if !g.Priority.Valid() {
		return Invalid("invalid priority")
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return ErrEmptyTitle
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDate.IsZero() {
		return Invalid("due date is required")
	}
	if !b.Frequency.Valid() {
		return Invalid("invalid frequency")
	}
	if b.ReminderDays < 0 {
		return Invalid("reminder days cannot be negative")
	}
	return nil
}

func (n Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrEmptyTitle
	}
	if len(n.Content) > 10000 {
		return Invalid("content too long (max 10000 characters)")
	}
	return nil
}

func (in NotificationInput) Validate() error {
	if in.UserID == 0 {
		return Invalid("user id is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return Invalid("notification type is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Invalid("notification title is required")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return Invalid("invalid priority")
	}
	return nil
}
