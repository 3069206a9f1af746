package core

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// PeriodKey buckets transactions for budget matching: a category paired with a
// calendar month ("YYYY-MM") or an exact day ("YYYY-MM-DD").
type PeriodKey struct {
	Category string
	Period   string
}

// MonthKey formats t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// DayKey formats t as "YYYY-MM-DD".
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

func ParseMonthKey(s string) (time.Time, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month key %q: %w", s, err)
	}
	return t, nil
}

func ParseDayKey(s string) (time.Time, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day key %q: %w", s, err)
	}
	return t, nil
}
