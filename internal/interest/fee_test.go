package interest

import (
	"testing"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func deposit(accountID, amount, eventType string) ledger.Instruction {
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec(amount),
		Denomination:       "GBP",
		FromAccountID:      "ext:counterparty",
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        accountID,
		ToAccountAddress:   ledger.AddressDefault,
		Details:            map[string]string{ledger.DetailEventType: eventType},
	})
	if err != nil {
		panic(err)
	}
	return in
}

func TestCountQualifyingDepositsIgnoresBankDrivenPostings(t *testing.T) {
	instructions := []ledger.Instruction{
		deposit("acc-1", "100", ""),
		deposit("acc-1", "0.55", "APPLY_ACCRUED_INTEREST"),
		deposit("acc-1", "10", "MONTHLY_FEE"),
		deposit("acc-1", "25", "OPENING_BONUS"),
		deposit("acc-2", "40", ""),
	}

	if got := CountQualifyingDeposits(instructions, "acc-1"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
	if got := CountQualifyingDeposits(nil, "acc-1"); got != 0 {
		t.Fatalf("count over empty window = %d, want 0", got)
	}
}

func TestMonthlyFeeBuildsCharge(t *testing.T) {
	in, err := MonthlyFee(MonthlyFeeSpec{
		Amount:       dec("10"),
		Denomination: "GBP",
		AccountID:    "acc-1",
		FeeIncomeID:  "bank:fees",
		ExecutionID:  "exec-9",
	})
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if in == nil {
		t.Fatal("expected an instruction")
	}
	if got := in.EventType(); got != "MONTHLY_FEE" {
		t.Fatalf("event type = %q", got)
	}
	if got := in.ClientTransactionID; got != "MONTHLY_FEE_exec-9" {
		t.Fatalf("client transaction id = %q", got)
	}
}

func TestMonthlyFeeZeroAmountIsSuppressed(t *testing.T) {
	in, err := MonthlyFee(MonthlyFeeSpec{Denomination: "GBP", AccountID: "acc-1", FeeIncomeID: "bank:fees"})
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if in != nil {
		t.Fatal("zero fee should be suppressed")
	}
}
