package core

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFrequencyAdvance(t *testing.T) {
	base := day("2024-01-31")
	tests := []struct {
		freq Frequency
		want string
	}{
		{Daily, "2024-02-01"},
		{Weekly, "2024-02-07"},
		{Monthly, "2024-03-02"}, // Jan 31 + 1 month normalizes past Feb
		{Yearly, "2025-01-31"},
		{OneTime, "2024-01-31"},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			if got := DayKey(tt.freq.Advance(base)); got != tt.want {
				t.Errorf("Advance(%s) = %s, want %s", tt.freq, got, tt.want)
			}
		})
	}
}

func TestFrequencyAdvanceMidMonth(t *testing.T) {
	got := Monthly.Advance(day("2024-01-10"))
	if DayKey(got) != "2024-02-10" {
		t.Errorf("Advance = %s, want 2024-02-10", DayKey(got))
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		Category:     "groceries",
		DurationType: DurationMonth,
		Month:        "2024-06",
		Duration:     1,
		Limit:        Money{Cents: 50000},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Budget)
	}{
		{"empty category", func(b *Budget) { b.Category = " " }},
		{"bad duration type", func(b *Budget) { b.DurationType = "week" }},
		{"bad month key", func(b *Budget) { b.Month = "June 2024" }},
		{"zero limit", func(b *Budget) { b.Limit = Money{} }},
		{"negative limit", func(b *Budget) { b.Limit = Money{Cents: -1} }},
		{"13 months at month granularity", func(b *Budget) { b.Duration = 13 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestBudgetValidateDayGranularity(t *testing.T) {
	b := Budget{
		Category:     "coffee",
		DurationType: DurationDay,
		Day:          "2024-06-15",
		Duration:     18, // long durations are fine at day granularity
		Limit:        Money{Cents: 500},
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("day budget rejected: %v", err)
	}

	b.Day = "2024-06"
	if err := b.Validate(); err == nil {
		t.Error("expected error for malformed day key")
	}
}

func TestBudgetPeriodValue(t *testing.T) {
	monthly := Budget{DurationType: DurationMonth, Month: "2024-06", Day: "2024-06-15"}
	if got := monthly.PeriodValue(); got != "2024-06" {
		t.Errorf("PeriodValue() = %s, want 2024-06", got)
	}
	daily := Budget{DurationType: DurationDay, Month: "2024-06", Day: "2024-06-15"}
	if got := daily.PeriodValue(); got != "2024-06-15" {
		t.Errorf("PeriodValue() = %s, want 2024-06-15", got)
	}
}

func TestGoalValidate(t *testing.T) {
	valid := Goal{
		Title:     "Emergency fund",
		Target:    Money{Cents: 100000},
		Current:   Money{Cents: 25000},
		StartDate: day("2024-01-01"),
		EndDate:   day("2024-12-31"),
		Priority:  PriorityHigh,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid goal rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Goal)
	}{
		{"empty title", func(g *Goal) { g.Title = "" }},
		{"zero target", func(g *Goal) { g.Target = Money{} }},
		{"current above target", func(g *Goal) { g.Current = Money{Cents: 100001} }},
		{"negative current", func(g *Goal) { g.Current = Money{Cents: -1} }},
		{"start after end", func(g *Goal) { g.StartDate = day("2025-01-01") }},
		{"bad priority", func(g *Goal) { g.Priority = "urgent" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid
			tt.mutate(&g)
			if err := g.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestBillValidate(t *testing.T) {
	valid := Bill{
		Title:     "Rent",
		Amount:    Money{Cents: 120000},
		DueDate:   day("2024-07-01"),
		Frequency: Monthly,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid bill rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Bill)
	}{
		{"empty title", func(b *Bill) { b.Title = "  " }},
		{"zero amount", func(b *Bill) { b.Amount = Money{} }},
		{"zero due date", func(b *Bill) { b.DueDate = time.Time{} }},
		{"bad frequency", func(b *Bill) { b.Frequency = "fortnightly" }},
		{"negative reminder days", func(b *Bill) { b.ReminderDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Type:       Expense,
		Amount:     Money{Cents: 999},
		Category:   "dining",
		OccurredOn: day("2024-06-15"),
		Source:     SourceManual,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	bad := valid
	bad.Type = "transfer"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}

	bad = valid
	bad.Source = "import"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestNotificationInputValidate(t *testing.T) {
	valid := NotificationInput{UserID: 1, Type: "bill_reminder", Title: "Upcoming bill"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*NotificationInput)
	}{
		{"missing user", func(in *NotificationInput) { in.UserID = 0 }},
		{"missing type", func(in *NotificationInput) { in.Type = "" }},
		{"missing title", func(in *NotificationInput) { in.Title = "  " }},
		{"bad priority", func(in *NotificationInput) { in.Priority = "critical" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if err := in.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(Invalid("nope")) {
		t.Error("Invalid() should be a validation error")
	}
	if !IsValidation(ErrInvalidAmount) {
		t.Error("ErrInvalidAmount should be a validation error")
	}
	if IsValidation(ErrNotFound) {
		t.Error("ErrNotFound should not be a validation error")
	}
}
