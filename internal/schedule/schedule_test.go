package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextMonthlyIsIdempotent(t *testing.T) {
	effective := time.Date(2019, 1, 15, 0, 10, 0, 0, time.UTC)
	first := NextMonthly(effective)
	second := NextMonthly(effective)
	if first != second {
		t.Fatalf("expected identical expressions, got %s and %s", first, second)
	}
	if first.Time() != time.Date(2019, 2, 15, 0, 10, 0, 0, time.UTC) {
		t.Fatalf("unexpected next fire: %s", first)
	}
}

func TestAddMonthClampsToMonthEnd(t *testing.T) {
	got := AddMonth(date(2019, 1, 31))
	if got != date(2019, 2, 28) {
		t.Fatalf("expected clamp to Feb 28, got %s", got)
	}
	if AddMonth(date(2020, 1, 31)) != date(2020, 2, 29) {
		t.Fatalf("expected leap-year clamp to Feb 29")
	}
}

func TestResolvePaymentDay(t *testing.T) {
	anchor := date(2019, 1, 4)

	day, roll := ResolvePaymentDay(nil, anchor)
	if day != 28 || roll {
		t.Fatalf("unset day should default to 28 without rollover, got %d/%v", day, roll)
	}

	big := 31
	day, _ = ResolvePaymentDay(&big, anchor)
	if day != 1 {
		t.Fatalf("days beyond 28 should wrap to 1, got %d", day)
	}

	early := 2
	_, roll = ResolvePaymentDay(&early, anchor)
	if !roll {
		t.Fatalf("a day before the anchor day must roll to next month")
	}
}

func TestFirstPaymentDateSkipsCreationMonth(t *testing.T) {
	creation := date(2019, 1, 4)

	// Payment day 5 is only one day after creation; the first payment must
	// move out beyond the first month.
	got := FirstPaymentDate(creation, 5, false)
	if got != date(2019, 2, 5) {
		t.Fatalf("expected 2019-02-05, got %s", got)
	}

	// A rollover case: creation on the 10th, payment day 2.
	creation = date(2019, 3, 10)
	day, roll := ResolvePaymentDay(&[]int{2}[0], creation)
	got = FirstPaymentDate(creation, day, roll)
	if got != date(2019, 5, 2) {
		t.Fatalf("expected 2019-05-02, got %s", got)
	}
}

func TestWholeDaysBetween(t *testing.T) {
	if n := WholeDaysBetween(date(2019, 2, 4), date(2019, 2, 5)); n != 1 {
		t.Fatalf("expected 1 day, got %d", n)
	}
	if n := WholeDaysBetween(date(2019, 2, 5), date(2019, 2, 4)); n != 0 {
		t.Fatalf("expected 0 for reversed interval, got %d", n)
	}
}
