package shared

import (
	"testing"
	"time"
)

func TestParseDatePlain(t *testing.T) {
	got, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 5 {
		t.Fatalf("unexpected date: %v", got)
	}
}

func TestParseDateRFC3339(t *testing.T) {
	got, err := ParseDate("2024-03-05T08:30:00Z")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Fatalf("unexpected time: %v", got)
	}
}

func TestParseDateEmpty(t *testing.T) {
	got, err := ParseDate("")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start, _ := v.Date("startDate", "2024-02-01")
	end, _ := v.Date("endDate", "2024-01-01")
	v.DateOrder("startDate", start, "endDate", end)
	if !v.HasIssues() {
		t.Fatal("expected inverted range to be flagged")
	}
}

func TestValidatorRejectsBadDate(t *testing.T) {
	v := NewValidator()
	if _, ok := v.Date("startDate", "not-a-date"); ok {
		t.Fatal("expected parse failure")
	}
	if len(v.Issues()) != 1 {
		t.Fatalf("expected one issue, got %d", len(v.Issues()))
	}
}
