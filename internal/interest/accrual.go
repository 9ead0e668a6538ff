// Package interest implements the accrual, application, and activity-fee
// engines shared by the deposit and loan products. All arithmetic is decimal
// with half-up rounding at each product's configured precision.
package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// Accrual precisions used by the shipped product families. Loan-style
// contracts accrue at 4 decimal places, deposit-style at 5; both are carried
// as explicit configuration because the source products genuinely differ.
const (
	LoanAccrualPrecision    int32 = 4
	DepositAccrualPrecision int32 = 5
	FulfillmentPrecision    int32 = 2
)

// DaysInYear is the fixed accrual divisor. Leap years are deliberately not
// compensated; changing this would alter historical financial results.
const DaysInYear = 365

// AccountAddress names one side of a movement.
type AccountAddress struct {
	AccountID string
	Address   string
}

// Accruer computes the daily interest accrual and the posting that books it
// into a holding address.
type Accruer struct {
	Precision  int32
	DaysInYear int

	// From and To are the holding addresses the accrual moves between. The
	// direction depends on the account side: loans debit their own accrual
	// address, deposits are credited from the internal payout account.
	From AccountAddress
	To   AccountAddress
}

// DailyRate converts an annual rate using the fixed days-in-year divisor.
func (a Accruer) DailyRate(annualRate decimal.Decimal) decimal.Decimal {
	days := a.DaysInYear
	if days == 0 {
		days = DaysInYear
	}
	return annualRate.Div(decimal.NewFromInt(int64(days)))
}

// Accrue computes one day's interest on balance and builds the holding
// transfer. A raw amount that is zero or negative, or that rounds to zero,
// yields no instruction: zero-value postings are suppressed, not emitted.
func (a Accruer) Accrue(balance, annualRate decimal.Decimal, denomination, executionID string) (*ledger.Instruction, decimal.Decimal, error) {
	dailyRate := a.DailyRate(annualRate)
	raw := balance.Mul(dailyRate)
	if !raw.IsPositive() {
		return nil, decimal.Zero, nil
	}

	amount := raw.Round(a.Precision)
	if !amount.IsPositive() {
		return nil, decimal.Zero, nil
	}

	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              amount,
		Denomination:        denomination,
		FromAccountID:       a.From.AccountID,
		FromAccountAddress:  a.From.Address,
		ToAccountID:         a.To.AccountID,
		ToAccountAddress:    a.To.Address,
		ClientTransactionID: executionID + "_ACCRUE_INTEREST",
		Details: map[string]string{
			ledger.DetailDescription: fmt.Sprintf("Daily interest accrued at %s on balance of %s", dailyRate, balance),
			ledger.DetailEventType:   "ACCRUE_INTEREST",
		},
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &in, amount, nil
}
