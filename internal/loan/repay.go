package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// Event types that move value into the spendable address without being
// customer repayments. They never count towards the repayment totals.
var internalEventTypes = map[string]bool{
	"TRANSFER_DUE":           true,
	"ACCRUE_INTEREST":        true,
	"APPLY_ACCRUED_INTEREST": true,
	"ALLOCATE_REPAYMENT":     true,
}

// PaymentContribution sums the customer credits an instruction set makes to
// the account's spendable committed balance.
func PaymentContribution(instructions []ledger.Instruction, accountID, denomination string) decimal.Decimal {
	target := ledger.CommittedCoordinate(ledger.AddressDefault, denomination)
	total := decimal.Zero
	for _, in := range instructions {
		if internalEventTypes[in.EventType()] {
			continue
		}
		for _, p := range in.Postings {
			if p.AccountID == accountID && p.Credit && p.Coordinate() == target {
				total = total.Add(p.Amount)
			}
		}
	}
	return total
}

// AllocatePayment builds the instruction moving an accepted payment against
// the outstanding due balance. A zero amount is a no-op.
func AllocatePayment(accountID string, amount decimal.Decimal, denomination, executionID string) (*ledger.Instruction, error) {
	if amount.IsZero() {
		return nil, nil
	}
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              amount,
		Denomination:        denomination,
		FromAccountID:       accountID,
		FromAccountAddress:  ledger.AddressDefault,
		ToAccountID:         accountID,
		ToAccountAddress:    ledger.AddressDue,
		ClientTransactionID: fmt.Sprintf("ALLOCATE_REPAYMENT_%s", executionID),
		Details: map[string]string{
			ledger.DetailDescription: fmt.Sprintf("Repayment of %s allocated against amount due", amount),
			ledger.DetailEventType:   "ALLOCATE_REPAYMENT",
		},
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// GuardSpec is the state a loan repayment is checked against.
type GuardSpec struct {
	AccountID      string
	Denomination   string
	CreatedAt      time.Time
	Effective      time.Time
	TotalDue       decimal.Decimal
	RecentPayments decimal.Decimal
	Proposed       []ledger.Instruction
}

// Guard gates an incoming posting batch against the loan rules: the account
// accepts credits only, nothing before the repayment window opens, and a
// payment may not push the trailing month's total past the amount due.
func Guard(spec GuardSpec) *contract.Rejection {
	for _, in := range spec.Proposed {
		for _, p := range in.Postings {
			if p.AccountID == spec.AccountID && !p.Credit {
				return contract.Reject(contract.ReasonAgainstTerms, "Cannot withdraw from this account")
			}
		}
	}

	windowOpens := spec.CreatedAt.Add(RepaymentWindow)
	if spec.Effective.Before(windowOpens) {
		return contract.Reject(contract.ReasonAgainstTerms,
			"Repayments do not start until %s", windowOpens.Format("2006-01-02"))
	}

	proposed := PaymentContribution(spec.Proposed, spec.AccountID, spec.Denomination)
	if spec.RecentPayments.Add(proposed).GreaterThan(spec.TotalDue) {
		headroom := spec.TotalDue.Sub(spec.RecentPayments)
		return contract.Reject(contract.ReasonAgainstTerms,
			"Cannot overpay with this account, you can currently pay up to %s", headroom)
	}
	return nil
}
