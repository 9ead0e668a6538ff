package loan

import (
	"testing"
	"time"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func dueSpec() DueTransferSpec {
	created := time.Date(2019, 1, 4, 9, 0, 0, 0, time.UTC)
	return DueTransferSpec{
		AccountID:    "loan-1",
		Denomination: "GBP",
		Principal:    dec("6500"),
		AnnualRate:   dec("0.045"),
		TermYears:    1,
		CreatedAt:    created,
		FirstPayment: time.Date(2019, 2, 5, 9, 0, 0, 0, time.UTC),
		Effective:    time.Date(2019, 2, 5, 9, 0, 0, 0, time.UTC),
		ExecutionID:  "exec-1",
	}
}

func TestDueTransferFirstFiringAddsGapInterest(t *testing.T) {
	spec := dueSpec()
	spec.FirstFiring = true

	in, due, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	// 554.96 installment plus one gap day of interest (0.80).
	if !due.Equal(dec("555.76")) {
		t.Fatalf("due = %s, want 555.76", due)
	}
	if in == nil {
		t.Fatal("expected an instruction")
	}
	if got := in.EventType(); got != "TRANSFER_DUE" {
		t.Fatalf("event type = %q", got)
	}
}

func TestDueTransferSubsequentFiringsChargeInstallmentOnly(t *testing.T) {
	spec := dueSpec()
	spec.Effective = time.Date(2019, 3, 5, 9, 0, 0, 0, time.UTC)

	_, due, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	if !due.Equal(dec("554.96")) {
		t.Fatalf("due = %s, want 554.96", due)
	}
}

func TestDueTransferFinalPeriodCollectsFullPayoff(t *testing.T) {
	spec := dueSpec()
	// Term ends 2020-01-04, within 28 days of this firing.
	spec.Effective = time.Date(2019, 12, 8, 9, 0, 0, 0, time.UTC)
	spec.Balances = ledger.Snapshot{
		ledger.CommittedCoordinate(ledger.AddressDefault, "GBP"):         dec("550.00"),
		ledger.CommittedCoordinate(ledger.AddressAccruedInterest, "GBP"): dec("2.0614"),
	}

	_, due, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	if !due.Equal(dec("552.06")) {
		t.Fatalf("due = %s, want 552.06", due)
	}
}

func TestDueTransferEndDateForcesPayoff(t *testing.T) {
	spec := dueSpec()
	end := time.Date(2019, 6, 5, 0, 0, 0, 0, time.UTC)
	spec.EndDate = &end
	spec.Effective = time.Date(2019, 6, 5, 9, 0, 0, 0, time.UTC)
	spec.Balances = ledger.Snapshot{
		ledger.CommittedCoordinate(ledger.AddressDefault, "GBP"): dec("3200.50"),
	}

	_, due, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	if !due.Equal(dec("3200.50")) {
		t.Fatalf("due = %s, want 3200.50", due)
	}
}

func TestDueTransferZeroPayoffYieldsNothing(t *testing.T) {
	spec := dueSpec()
	end := time.Date(2019, 6, 5, 0, 0, 0, 0, time.UTC)
	spec.EndDate = &end
	spec.Balances = ledger.Snapshot{}

	in, _, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	if in != nil {
		t.Fatal("settled loan should emit no due transfer")
	}
}

func TestDueTransferMovesDueOutOfDefault(t *testing.T) {
	spec := dueSpec()
	spec.Effective = time.Date(2019, 3, 5, 9, 0, 0, 0, time.UTC)

	in, _, err := DueTransfer(spec)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}
	snap := ledger.Contribution([]ledger.Instruction{*in}, "loan-1", ledger.TsideAsset)
	if got := snap.Net(ledger.CommittedCoordinate(ledger.AddressDue, "GBP")); !got.Equal(dec("554.96")) {
		t.Fatalf("due address contribution = %s, want 554.96", got)
	}
	if got := snap.Net(ledger.CommittedCoordinate(ledger.AddressDefault, "GBP")); !got.Equal(dec("-554.96")) {
		t.Fatalf("default address contribution = %s, want -554.96", got)
	}
}
