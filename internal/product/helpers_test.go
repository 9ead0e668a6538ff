package product

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	journal ledger.Journal
	store   *params.MemoryStore
	ec      *contract.Context
}

func newFixture(t *testing.T, accountID string, tside ledger.Tside, created time.Time, values map[string]string) *fixture {
	t.Helper()
	journal := ledger.NewInMemoryJournal()
	ctx := context.Background()
	for _, id := range []string{accountID, "bank:internal", "bank:bonus", "bank:interest", "bank:fees", "ext:counterparty", "dep-1"} {
		side := ledger.TsideLiability
		if id == accountID {
			side = tside
		}
		if err := journal.EnsureAccount(ctx, id, side); err != nil {
			t.Fatalf("ensure account: %v", err)
		}
	}

	store := params.NewMemoryStore()
	store.SetAll(values, created)

	return &fixture{
		journal: journal,
		store:   store,
		ec: &contract.Context{
			AccountID:     accountID,
			CreatedAt:     created,
			EffectiveTime: created,
			ExecutionID:   "exec-1",
			Params:        store,
			Balances:      contract.NewJournalBalances(journal, accountID),
			History:       contract.NewJournalHistory(journal, accountID),
		},
	}
}

// at derives an invocation context for a later firing.
func (f *fixture) at(effective time.Time, executionID string) *contract.Context {
	ec := *f.ec
	ec.EffectiveTime = effective
	ec.ExecutionID = executionID
	return &ec
}

func (f *fixture) commit(t *testing.T, batches []ledger.Batch) {
	t.Helper()
	for _, b := range batches {
		if err := f.journal.Commit(context.Background(), b); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
}

func paymentTo(t *testing.T, accountID, amount string) ledger.Instruction {
	t.Helper()
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec(amount),
		Denomination:       "GBP",
		FromAccountID:      "ext:counterparty",
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        accountID,
		ToAccountAddress:   ledger.AddressDefault,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	return in
}

func withdrawalFrom(t *testing.T, accountID, amount string) ledger.Instruction {
	t.Helper()
	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec(amount),
		Denomination:       "GBP",
		FromAccountID:      accountID,
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        "ext:counterparty",
		ToAccountAddress:   ledger.AddressDefault,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	return in
}
