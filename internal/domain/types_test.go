package domain

import (
	"testing"
	"time"
)

func TestDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 15, 16, 30, 45, 123, loc)

	got := Day(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("Day location = %v, want UTC", got.Location())
	}
}

func TestDayIdempotent(t *testing.T) {
	d := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !Day(Day(d)).Equal(d) {
		t.Errorf("Day not idempotent for %v", d)
	}
}
