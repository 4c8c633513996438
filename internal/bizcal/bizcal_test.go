package bizcal

import (
	"testing"
	"time"
)

func TestNextBusinessDaySkipsWeekend(t *testing.T) {
	// Thursday 2026-01-01 + 2 business days -> Monday 2026-01-05
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	got := NextBusinessDay(from, 2)
	want := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestWholeDaysBetween(t *testing.T) {
	now := time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC)
	if got := WholeDaysBetween("2026-01-05", now); got != 5 {
		t.Fatalf("want 5, got %d", got)
	}
	if got := WholeDaysBetween("", now); got != 0 {
		t.Fatalf("want 0 for empty lastDate, got %d", got)
	}
}

func TestISODateFormat(t *testing.T) {
	now := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	if got := ISODate(now); got != "2026-03-07" {
		t.Fatalf("want 2026-03-07, got %s", got)
	}
}
