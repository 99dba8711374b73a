package scheduler

import (
	"testing"
	"time"
)

func TestCronExpr_Next_AllAny(t *testing.T) {
	e, err := parseCronExpr("* * * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	after := time.Date(2026, 2, 3, 9, 0, 30, 0, time.UTC)
	next, err := e.next(after)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2026, 2, 3, 9, 1, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), next.Format(time.RFC3339))
	}
}

func TestCronExpr_Next_DailyAt0900(t *testing.T) {
	e, err := parseCronExpr("0 9 * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	after := time.Date(2026, 2, 3, 8, 59, 59, 0, time.UTC)
	next, err := e.next(after)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), next.Format(time.RFC3339))
	}
}

func TestCronExpr_Next_WeekdayRange(t *testing.T) {
	e, err := parseCronExpr("0 16 * * 1-5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// 2026-02-06 is a Friday; after 16:00 the next firing is Monday.
	after := time.Date(2026, 2, 6, 16, 30, 0, 0, time.UTC)
	next, err := e.next(after)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2026, 2, 9, 16, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), next.Format(time.RFC3339))
	}
}

func TestCronExpr_Next_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	e, err := parseCronExpr("0 16 * * *")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	after := time.Date(2026, 2, 3, 15, 0, 0, 0, loc)
	next, err := e.next(after)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if want := time.Date(2026, 2, 3, 16, 0, 0, 0, loc); !next.Equal(want) {
		t.Fatalf("want %s, got %s", want.Format(time.RFC3339), next.Format(time.RFC3339))
	}
	if next.Location() != loc {
		t.Fatalf("location changed: %v", next.Location())
	}
}

func TestCronExpr_RangeOutOfBounds(t *testing.T) {
	if _, err := parseCronExpr("0 16 * * 1-9"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCronExpr_Invalid(t *testing.T) {
	_, err := parseCronExpr("0 0 * *")
	if err == nil {
		t.Fatalf("expected error")
	}
}
