package loan

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func payment(accountID, amount string) ledger.Instruction {
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec(amount),
		Denomination:       "GBP",
		FromAccountID:      "ext:counterparty",
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        accountID,
		ToAccountAddress:   ledger.AddressDefault,
	})
	if err != nil {
		panic(err)
	}
	return in
}

func guardSpec() GuardSpec {
	created := time.Date(2019, 1, 4, 9, 0, 0, 0, time.UTC)
	return GuardSpec{
		AccountID:    "loan-1",
		Denomination: "GBP",
		CreatedAt:    created,
		Effective:    created.AddDate(0, 2, 0),
		TotalDue:     dec("441.67"),
	}
}

func TestGuardRejectsWithdrawals(t *testing.T) {
	spec := guardSpec()
	withdrawal, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec("50"),
		Denomination:       "GBP",
		FromAccountID:      "loan-1",
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        "ext:counterparty",
		ToAccountAddress:   ledger.AddressDefault,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	spec.Proposed = []ledger.Instruction{withdrawal}

	rej := Guard(spec)
	if rej == nil {
		t.Fatal("expected rejection")
	}
	if rej.Message != "Cannot withdraw from this account" {
		t.Fatalf("message = %q", rej.Message)
	}
}

func TestGuardRejectsBeforeRepaymentWindowOpens(t *testing.T) {
	spec := guardSpec()
	spec.Effective = spec.CreatedAt.Add(27 * 24 * time.Hour)
	spec.Proposed = []ledger.Instruction{payment("loan-1", "100")}

	rej := Guard(spec)
	if rej == nil {
		t.Fatal("expected rejection")
	}
	if !strings.HasPrefix(rej.Message, "Repayments do not start until ") {
		t.Fatalf("message = %q", rej.Message)
	}
}

func TestGuardReportsOverpaymentHeadroom(t *testing.T) {
	spec := guardSpec()
	spec.RecentPayments = dec("100")
	spec.Proposed = []ledger.Instruction{payment("loan-1", "500")}

	rej := Guard(spec)
	if rej == nil {
		t.Fatal("expected rejection")
	}
	if rej.Message != "Cannot overpay with this account, you can currently pay up to 341.67" {
		t.Fatalf("message = %q", rej.Message)
	}
}

func TestGuardAcceptsPaymentWithinHeadroom(t *testing.T) {
	spec := guardSpec()
	spec.RecentPayments = dec("100")
	spec.Proposed = []ledger.Instruction{payment("loan-1", "341.67")}

	if rej := Guard(spec); rej != nil {
		t.Fatalf("unexpected rejection: %s", rej.Message)
	}
}

func TestPaymentContributionIgnoresInternalMovements(t *testing.T) {
	s := dueSpec()
	s.Effective = time.Date(2019, 3, 5, 9, 0, 0, 0, time.UTC)
	due, _, err := DueTransfer(s)
	if err != nil {
		t.Fatalf("due transfer: %v", err)
	}

	instructions := []ledger.Instruction{*due, payment("loan-1", "200")}
	got := PaymentContribution(instructions, "loan-1", "GBP")
	if !got.Equal(dec("200")) {
		t.Fatalf("contribution = %s, want 200", got)
	}
}

func TestAllocatePaymentMovesCreditIntoDue(t *testing.T) {
	in, err := AllocatePayment("loan-1", dec("200"), "GBP", "exec-1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	snap := ledger.Contribution([]ledger.Instruction{*in}, "loan-1", ledger.TsideAsset)
	if got := snap.Net(ledger.CommittedCoordinate(ledger.AddressDue, "GBP")); !got.Equal(dec("-200")) {
		t.Fatalf("due contribution = %s, want -200", got)
	}
}

func TestAllocatePaymentZeroIsNoOp(t *testing.T) {
	in, err := AllocatePayment("loan-1", decimal.Zero, "GBP", "exec-1")
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if in != nil {
		t.Fatal("zero allocation should be suppressed")
	}
}
