package interest

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func loanAccruer() Accruer {
	return Accruer{
		Precision:  LoanAccrualPrecision,
		DaysInYear: DaysInYear,
		From:       AccountAddress{AccountID: "acc-1", Address: ledger.AddressAccruedInterest},
		To:         AccountAddress{AccountID: "bank:accrued", Address: ledger.AddressAccruedIncoming},
	}
}

func TestAccrueRoundsHalfUpAtPrecision(t *testing.T) {
	a := loanAccruer()

	// 6500 * 0.045 / 365 = 0.80136986..., rounds to 0.8014 at 4 dp.
	in, amount, err := a.Accrue(dec("6500"), dec("0.045"), "GBP", "exec-1")
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if in == nil {
		t.Fatal("expected an instruction")
	}
	if !amount.Equal(dec("0.8014")) {
		t.Fatalf("amount = %s, want 0.8014", amount)
	}
	if err := in.Validate(); err != nil {
		t.Fatalf("instruction unbalanced: %v", err)
	}
	if got := in.EventType(); got != "ACCRUE_INTEREST" {
		t.Fatalf("event type = %q", got)
	}
}

func TestAccrueDepositPrecision(t *testing.T) {
	a := Accruer{
		Precision:  DepositAccrualPrecision,
		DaysInYear: DaysInYear,
		From:       AccountAddress{AccountID: "bank:payout", Address: ledger.AddressAccruedOutgoing},
		To:         AccountAddress{AccountID: "acc-1", Address: ledger.AddressAccruedIncoming},
	}

	// 1000 * 0.0149 / 365 = 0.0408219..., rounds to 0.04082 at 5 dp.
	_, amount, err := a.Accrue(dec("1000"), dec("0.0149"), "GBP", "exec-1")
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if !amount.Equal(dec("0.04082")) {
		t.Fatalf("amount = %s, want 0.04082", amount)
	}
}

func TestAccrueSuppressesZeroAndNegative(t *testing.T) {
	a := loanAccruer()

	for _, balance := range []string{"0", "-500"} {
		in, _, err := a.Accrue(dec(balance), dec("0.045"), "GBP", "exec-1")
		if err != nil {
			t.Fatalf("accrue(%s): %v", balance, err)
		}
		if in != nil {
			t.Fatalf("accrue(%s) produced an instruction", balance)
		}
	}

	// Rounds to zero at 4 dp: 0.0001 * 0.045 / 365.
	in, _, err := a.Accrue(dec("0.0001"), dec("0.045"), "GBP", "exec-1")
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if in != nil {
		t.Fatal("vanishing accrual should be suppressed")
	}
}

func TestAccrueClientTransactionIDIncludesExecution(t *testing.T) {
	a := loanAccruer()

	in, _, err := a.Accrue(dec("6500"), dec("0.045"), "GBP", "exec-42")
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if got := in.ClientTransactionID; got != "exec-42_ACCRUE_INTEREST" {
		t.Fatalf("client transaction id = %q", got)
	}
}
