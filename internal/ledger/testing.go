package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const seedAccountID = "seed:funding"

// SeedBalance commits a balanced batch that raises the account's net balance
// at the address by amount. Test helper only.
func SeedBalance(j Journal, accountID string, tside Tside, address, denomination string, amount decimal.Decimal, at time.Time) error {
	ctx := context.Background()
	if err := j.EnsureAccount(ctx, seedAccountID, TsideLiability); err != nil {
		return err
	}

	spec := TransferSpec{
		Amount:              amount,
		Denomination:        denomination,
		FromAccountID:       seedAccountID,
		FromAccountAddress:  AddressDefault,
		ToAccountID:         accountID,
		ToAccountAddress:    address,
		ClientTransactionID: "seed_" + uuid.NewString(),
		Details:             map[string]string{DetailDescription: "seeded balance"},
	}
	if tside == TsideAsset {
		// Debits raise an asset-side balance.
		spec.FromAccountID, spec.ToAccountID = accountID, seedAccountID
		spec.FromAccountAddress, spec.ToAccountAddress = address, AddressDefault
	}

	in, err := Transfer(spec)
	if err != nil {
		return err
	}
	return j.Commit(ctx, Batch{Instructions: []Instruction{in}, ValueTime: at})
}
