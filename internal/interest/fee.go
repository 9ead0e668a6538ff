package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// Event types excluded when counting customer deposit activity. Bank-driven
// postings never count towards fee exemption.
var nonQualifyingEventTypes = map[string]bool{
	"APPLY_ACCRUED_INTEREST": true,
	"APPLY_INTEREST":         true,
	"MONTHLY_FEE":            true,
	"OPENING_BONUS":          true,
}

// CountQualifyingDeposits counts the instructions in a window that represent
// customer deposits into the account: a positive credit leg against the
// account whose event type is not bank-driven.
func CountQualifyingDeposits(instructions []ledger.Instruction, accountID string) int {
	count := 0
	for _, in := range instructions {
		if nonQualifyingEventTypes[in.EventType()] {
			continue
		}
		for _, p := range in.Postings {
			if p.AccountID == accountID && p.Credit && p.Amount.IsPositive() {
				count++
				break
			}
		}
	}
	return count
}

// MonthlyFeeSpec describes one maintenance fee charge.
type MonthlyFeeSpec struct {
	Amount       decimal.Decimal
	Denomination string
	AccountID    string
	FeeIncomeID  string
	ExecutionID  string
}

// MonthlyFee builds the flat maintenance fee instruction, charged from the
// account's spendable balance into the bank's fee income account. A zero fee
// yields no instruction.
func MonthlyFee(spec MonthlyFeeSpec) (*ledger.Instruction, error) {
	if !spec.Amount.IsPositive() {
		return nil, nil
	}
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              spec.Amount,
		Denomination:        spec.Denomination,
		FromAccountID:       spec.AccountID,
		FromAccountAddress:  ledger.AddressDefault,
		ToAccountID:         spec.FeeIncomeID,
		ToAccountAddress:    ledger.AddressDefault,
		ClientTransactionID: fmt.Sprintf("MONTHLY_FEE_%s", spec.ExecutionID),
		Details: map[string]string{
			ledger.DetailDescription: "Monthly maintenance fee",
			ledger.DetailEventType:   "MONTHLY_FEE",
		},
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}
