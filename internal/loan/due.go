package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/interest"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/schedule"
)

// RepaymentWindow is how long after creation repayments stay closed, and
// also the lookahead used to detect the final repayment period.
const RepaymentWindow = 28 * 24 * time.Hour

// DueTransferSpec carries one monthly due-transfer firing.
type DueTransferSpec struct {
	AccountID    string
	Denomination string
	Principal    decimal.Decimal
	AnnualRate   decimal.Decimal
	TermYears    int
	CreatedAt    time.Time
	FirstPayment time.Time
	Effective    time.Time
	EndDate      *time.Time
	FirstFiring  bool
	Balances     ledger.Snapshot
	ExecutionID  string
}

// termEnd is the natural end of the amortization term.
func (s DueTransferSpec) termEnd() time.Time {
	end := s.CreatedAt
	for i := 0; i < s.TermYears*12; i++ {
		end = schedule.AddMonth(end)
	}
	return end
}

// finalPeriod reports whether this firing must collect the full payoff: an
// operator-set end date, or the natural term end landing within one repayment
// window of now.
func (s DueTransferSpec) finalPeriod() bool {
	if s.EndDate != nil {
		return true
	}
	return !s.termEnd().After(s.Effective.Add(RepaymentWindow))
}

// DueTransfer computes the amount falling due this period and builds the
// instruction carving it out of the outstanding balance into the due
// address. In the final period the amount is the full remaining balance
// across all addresses; otherwise it is the amortized installment, plus the
// one-off gap interest on the very first firing. A non-positive amount
// yields no instruction.
func DueTransfer(spec DueTransferSpec) (*ledger.Instruction, decimal.Decimal, error) {
	var due decimal.Decimal
	if spec.finalPeriod() {
		due = spec.Balances.Total().Round(interest.FulfillmentPrecision)
	} else {
		due = AmortizedPayment(spec.Principal, spec.AnnualRate, spec.TermYears)
		if spec.FirstFiring {
			due = due.Add(AdditionalFirstPeriodInterest(spec.Principal, spec.AnnualRate, spec.CreatedAt, spec.FirstPayment))
		}
	}
	if !due.IsPositive() {
		return nil, decimal.Zero, nil
	}

	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              due,
		Denomination:        spec.Denomination,
		FromAccountID:       spec.AccountID,
		FromAccountAddress:  ledger.AddressDue,
		ToAccountID:         spec.AccountID,
		ToAccountAddress:    ledger.AddressDefault,
		ClientTransactionID: fmt.Sprintf("TRANSFER_DUE_%s", spec.ExecutionID),
		Details: map[string]string{
			ledger.DetailDescription: fmt.Sprintf("Monthly repayment of %s due", due),
			ledger.DetailEventType:   "TRANSFER_DUE",
		},
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &in, due, nil
}
