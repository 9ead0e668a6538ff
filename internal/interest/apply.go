package interest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// Movement names the source and destination of one application leg.
type Movement struct {
	From AccountAddress
	To   AccountAddress
}

// Applier fulfils accrued interest at payout precision. The accrued holding
// balance is rounded down to the payable amount and moved in one atomic
// batch; depending on configuration, a positive rounding remainder is
// reversed out of the holding address in the same batch.
type Applier struct {
	Precision                int32
	ReversePositiveRemainder bool
}

// ApplySpec carries one application's inputs. CustomerLeg moves the payable
// amount on the customer account, InternalLeg mirrors it on the bank's
// internal account, and RemainderLeg (optional) is where a positive rounding
// remainder is returned.
type ApplySpec struct {
	Accrued      decimal.Decimal
	Denomination string
	CustomerLeg  Movement
	InternalLeg  Movement
	RemainderLeg *Movement
	ExecutionID  string
	ValueTime    time.Time
}

// Apply builds the application batch for spec and reports the payable amount.
// A zero payable yields no batch. Err is only returned on malformed specs.
func (a Applier) Apply(spec ApplySpec) (*ledger.Batch, decimal.Decimal, error) {
	payable := spec.Accrued.Round(a.Precision)
	if payable.IsZero() {
		return nil, decimal.Zero, nil
	}
	if payable.IsNegative() {
		payable = payable.Abs()
	}

	key := fmt.Sprintf("APPLY_ACCRUED_INTEREST_%s_%s", spec.ExecutionID, spec.Denomination)

	customer, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              payable,
		Denomination:        spec.Denomination,
		FromAccountID:       spec.CustomerLeg.From.AccountID,
		FromAccountAddress:  spec.CustomerLeg.From.Address,
		ToAccountID:         spec.CustomerLeg.To.AccountID,
		ToAccountAddress:    spec.CustomerLeg.To.Address,
		ClientTransactionID: key + "_CUSTOMER",
		Details: map[string]string{
			ledger.DetailDescription: "Interest Applied",
			ledger.DetailEventType:   "APPLY_ACCRUED_INTEREST",
		},
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	internal, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              payable,
		Denomination:        spec.Denomination,
		FromAccountID:       spec.InternalLeg.From.AccountID,
		FromAccountAddress:  spec.InternalLeg.From.Address,
		ToAccountID:         spec.InternalLeg.To.AccountID,
		ToAccountAddress:    spec.InternalLeg.To.Address,
		ClientTransactionID: key + "_INTERNAL",
		Details: map[string]string{
			ledger.DetailDescription: "Interest Applied",
			ledger.DetailEventType:   "APPLY_ACCRUED_INTEREST",
		},
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	batch := &ledger.Batch{
		ID:           key,
		Instructions: []ledger.Instruction{customer, internal},
		ValueTime:    spec.ValueTime,
	}

	remainder := spec.Accrued.Abs().Sub(payable)
	if a.ReversePositiveRemainder && remainder.IsPositive() && spec.RemainderLeg != nil {
		reversal, err := ledger.Transfer(ledger.TransferSpec{
			Amount:              remainder,
			Denomination:        spec.Denomination,
			FromAccountID:       spec.RemainderLeg.From.AccountID,
			FromAccountAddress:  spec.RemainderLeg.From.Address,
			ToAccountID:         spec.RemainderLeg.To.AccountID,
			ToAccountAddress:    spec.RemainderLeg.To.Address,
			ClientTransactionID: key + "_REMAINDER",
			Details: map[string]string{
				ledger.DetailDescription: "Reversing negligible accrued interest",
				ledger.DetailEventType:   "APPLY_ACCRUED_INTEREST",
			},
		})
		if err != nil {
			return nil, decimal.Zero, err
		}
		batch.Instructions = append(batch.Instructions, reversal)
	}

	return batch, payable, nil
}
