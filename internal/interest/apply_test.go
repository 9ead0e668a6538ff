package interest

import (
	"testing"
	"time"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func depositApplySpec(accrued string) ApplySpec {
	return ApplySpec{
		Accrued:      dec(accrued),
		Denomination: "GBP",
		CustomerLeg: Movement{
			From: AccountAddress{AccountID: "acc-1", Address: ledger.AddressAccruedIncoming},
			To:   AccountAddress{AccountID: "acc-1", Address: ledger.AddressDefault},
		},
		InternalLeg: Movement{
			From: AccountAddress{AccountID: "bank:payout", Address: ledger.AddressDefault},
			To:   AccountAddress{AccountID: "bank:payout", Address: ledger.AddressAccruedOutgoing},
		},
		RemainderLeg: &Movement{
			From: AccountAddress{AccountID: "acc-1", Address: ledger.AddressAccruedIncoming},
			To:   AccountAddress{AccountID: "bank:payout", Address: ledger.AddressAccruedOutgoing},
		},
		ExecutionID: "exec-1",
		ValueTime:   time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestApplyRoundsToPayoutPrecisionWithRemainderReversal(t *testing.T) {
	a := Applier{Precision: FulfillmentPrecision, ReversePositiveRemainder: true}

	batch, payable, err := a.Apply(depositApplySpec("1.22465"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !payable.Equal(dec("1.22")) {
		t.Fatalf("payable = %s, want 1.22", payable)
	}
	if batch == nil {
		t.Fatal("expected a batch")
	}
	if len(batch.Instructions) != 3 {
		t.Fatalf("instructions = %d, want customer, internal, and remainder legs", len(batch.Instructions))
	}
	remainder := batch.Instructions[2]
	if !remainder.Postings[0].Amount.Equal(dec("0.00465")) {
		t.Fatalf("remainder = %s, want 0.00465", remainder.Postings[0].Amount)
	}
	for i, in := range batch.Instructions {
		if err := in.Validate(); err != nil {
			t.Fatalf("instruction %d unbalanced: %v", i, err)
		}
	}
}

func TestApplyNegativeRemainderIsNotToppedUp(t *testing.T) {
	a := Applier{Precision: FulfillmentPrecision, ReversePositiveRemainder: true}

	// 1.226 rounds up to 1.23; the holding address is left short and no
	// compensating posting is made.
	batch, payable, err := a.Apply(depositApplySpec("1.226"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !payable.Equal(dec("1.23")) {
		t.Fatalf("payable = %s, want 1.23", payable)
	}
	if len(batch.Instructions) != 2 {
		t.Fatalf("instructions = %d, want 2", len(batch.Instructions))
	}
}

func TestApplyZeroAccruedYieldsNoBatch(t *testing.T) {
	a := Applier{Precision: FulfillmentPrecision}

	batch, payable, err := a.Apply(depositApplySpec("0.004"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if batch != nil {
		t.Fatal("vanishing application should yield no batch")
	}
	if !payable.IsZero() {
		t.Fatalf("payable = %s, want 0", payable)
	}
}

func TestApplyBatchIDIsDeterministic(t *testing.T) {
	a := Applier{Precision: FulfillmentPrecision}

	batch, _, err := a.Apply(depositApplySpec("1.50"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := batch.ID; got != "APPLY_ACCRUED_INTEREST_exec-1_GBP" {
		t.Fatalf("batch id = %q", got)
	}
}
