// Package loan implements the repayment mechanics shared by the lending
// products: annuity amortization, monthly due transfers with the final-period
// payoff rule, and the allocation of customer repayments against due balances.
package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/interest"
	"github.com/atlas-bank/atlas_core/internal/schedule"
)

var (
	twelve     = decimal.NewFromInt(12)
	daysInYear = decimal.NewFromInt(interest.DaysInYear)
)

// AmortizedPayment computes the constant monthly repayment for a principal
// amortized over termYears at the given annual rate:
//
//	P * r * (1+r)^n / ((1+r)^n - 1)
//
// with r the monthly rate and n the number of monthly payments. A zero rate
// degenerates to principal divided evenly over the term. The result is
// rounded half-up to 2 decimal places.
func AmortizedPayment(principal, annualRate decimal.Decimal, termYears int) decimal.Decimal {
	n := decimal.NewFromInt(int64(termYears) * 12)
	if annualRate.IsZero() {
		return principal.Div(n).Round(interest.FulfillmentPrecision)
	}
	r := annualRate.Div(twelve)
	compound := r.Add(decimal.New(1, 0)).Pow(n)
	payment := principal.Mul(r).Mul(compound).Div(compound.Sub(decimal.New(1, 0)))
	return payment.Round(interest.FulfillmentPrecision)
}

// AdditionalFirstPeriodInterest covers the gap between the nominal one-month
// amortization period and the actual first payment date. The first due
// transfer charges one extra day of interest on the full principal for every
// day the first payment lands after creation plus one month.
func AdditionalFirstPeriodInterest(principal, annualRate decimal.Decimal, creation, firstPayment time.Time) decimal.Decimal {
	gapDays := schedule.WholeDaysBetween(schedule.AddMonth(creation), firstPayment)
	if gapDays <= 0 {
		return decimal.Zero
	}
	daily := annualRate.Div(daysInYear)
	return principal.Mul(daily).Mul(decimal.NewFromInt(int64(gapDays))).Round(interest.FulfillmentPrecision)
}
