// Package schedule computes the recurring-timer expressions contracts hand
// back to the host: payment-day resolution, first-payment dating, and the
// add-one-month next-fire rule.
package schedule

import (
	"fmt"
	"time"
)

// Expression is a fixed-time schedule: the host fires the event once at the
// named instant, then asks the contract for the next expression.
type Expression struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// At captures a concrete instant as an expression.
func At(t time.Time) Expression {
	return Expression{
		Year:   t.Year(),
		Month:  t.Month(),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time reconstructs the fire instant in UTC.
func (e Expression) Time() time.Time {
	return time.Date(e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Second, 0, time.UTC)
}

func (e Expression) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Second)
}

// AddMonth moves t one calendar month forward preserving time-of-day. The
// day of month is clamped to the target month's length rather than letting
// the date normalize into the following month.
func AddMonth(t time.Time) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, 1, 0)
	day := t.Day()
	if last := daysIn(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextMonthly is the standard reschedule rule: one calendar month after the
// current effective time. Applying it twice to the same instant yields the
// same result, so redelivered firings compute identical schedules.
func NextMonthly(effective time.Time) Expression {
	return At(AddMonth(effective))
}

// ResolvePaymentDay applies the payment-day rules: unset defaults to 28,
// days beyond 28 wrap to 1, and a day earlier in the month than the anchor
// rolls the first occurrence into the next month.
func ResolvePaymentDay(paymentDay *int, anchor time.Time) (day int, rollToNextMonth bool) {
	day = 28
	if paymentDay != nil {
		day = *paymentDay
	}
	if day > 28 {
		day = 1
	}
	if day < anchor.Day() {
		rollToNextMonth = true
	}
	return day, rollToNextMonth
}

// FirstPaymentDate places the first repayment on the resolved payment day,
// at least 28 days after account creation so the customer never pays inside
// their first month.
func FirstPaymentDate(creation time.Time, day int, rollToNextMonth bool) time.Time {
	first := time.Date(creation.Year(), creation.Month(), day,
		creation.Hour(), creation.Minute(), creation.Second(), 0, creation.Location())
	if rollToNextMonth {
		first = AddMonth(first)
	}
	if first.Sub(creation) < 28*24*time.Hour {
		first = AddMonth(first)
	}
	return first
}

// WholeDaysBetween counts complete days from a to b.
func WholeDaysBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	return int(b.Sub(a) / (24 * time.Hour))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
