package core

import (
	"testing"
	"time"
)

func TestPeriodKeys(t *testing.T) {
	ts := time.Date(2024, time.June, 5, 13, 45, 0, 0, time.UTC)
	if got := MonthKey(ts); got != "2024-06" {
		t.Errorf("MonthKey = %s, want 2024-06", got)
	}
	if got := DayKey(ts); got != "2024-06-05" {
		t.Errorf("DayKey = %s, want 2024-06-05", got)
	}
}

func TestParseMonthKey(t *testing.T) {
	got, err := ParseMonthKey("2024-06")
	if err != nil {
		t.Fatalf("ParseMonthKey: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.June {
		t.Errorf("ParseMonthKey = %v", got)
	}
	if _, err := ParseMonthKey("2024-6"); err == nil {
		t.Error("expected error for unpadded month")
	}
	if _, err := ParseMonthKey("2024-06-01"); err == nil {
		t.Error("expected error for day key passed as month")
	}
}

func TestParseDayKey(t *testing.T) {
	got, err := ParseDayKey("2024-06-05")
	if err != nil {
		t.Fatalf("ParseDayKey: %v", err)
	}
	if DayKey(got) != "2024-06-05" {
		t.Errorf("round trip = %s", DayKey(got))
	}
	if _, err := ParseDayKey("05/06/2024"); err == nil {
		t.Error("expected error for slash format")
	}
}
