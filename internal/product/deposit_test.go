package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
)

func depositValues() map[string]string {
	return map[string]string{
		ParamDenomination:       "GBP",
		ParamMaximumBalance:     "1000",
		ParamOpeningBonus:       "25",
		ParamBonusPayoutAccount: "bank:bonus",
		ParamInterestRate:       "0.0149",
		ParamInterestPaid:       "bank:interest",
	}
}

func TestDepositActivationPaysOpeningBonus(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, depositValues())

	result, err := Deposit{}.Activate(context.Background(), f.ec)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	require.Len(t, result.Schedules, 1)
	require.Equal(t, contract.EventApplyInterest, result.Schedules[0].Kind)
	require.Equal(t, time.Date(2020, 2, 1, 9, 0, 0, 0, time.UTC), result.Schedules[0].Expression.Time())

	f.commit(t, result.Batches)
	snap, err := f.journal.SnapshotLatest(context.Background(), "acc-1")
	require.NoError(t, err)
	require.True(t, snap.Net(ledger.CommittedCoordinate(ledger.AddressDefault, "GBP")).Equal(dec("25")))
}

func TestDepositActivationZeroBonusPaysNothing(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	values := depositValues()
	values[ParamOpeningBonus] = "0"
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, values)

	result, err := Deposit{}.Activate(context.Background(), f.ec)
	require.NoError(t, err)
	require.Empty(t, result.Batches)
}

func TestDepositPrePostingChecksDenominationThenLimit(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, depositValues())

	wrongDenom, err := ledger.Transfer(ledger.TransferSpec{
		Amount:             dec("10"),
		Denomination:       "USD",
		FromAccountID:      "ext:counterparty",
		FromAccountAddress: ledger.AddressDefault,
		ToAccountID:        "acc-1",
		ToAccountAddress:   ledger.AddressDefault,
	})
	require.NoError(t, err)

	rej, err := Deposit{}.PrePosting(context.Background(), f.ec, []ledger.Instruction{wrongDenom})
	require.NoError(t, err)
	require.NotNil(t, rej)
	require.Equal(t, contract.ReasonWrongDenomination, rej.Reason)

	rej, err = Deposit{}.PrePosting(context.Background(), f.ec, []ledger.Instruction{paymentTo(t, "acc-1", "1000.01")})
	require.NoError(t, err)
	require.NotNil(t, rej)
	require.Equal(t, contract.ReasonAgainstTerms, rej.Reason)

	rej, err = Deposit{}.PrePosting(context.Background(), f.ec, []ledger.Instruction{paymentTo(t, "acc-1", "1000")})
	require.NoError(t, err)
	require.Nil(t, rej)
}

func TestDepositApplyInterestSweepsMonthlyInterest(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, depositValues())
	require.NoError(t, ledger.SeedBalance(f.journal, "acc-1", ledger.TsideLiability,
		ledger.AddressDefault, "GBP", dec("1000"), created))

	effective := time.Date(2020, 2, 1, 9, 0, 0, 0, time.UTC)
	result, err := Deposit{}.HandleEvent(context.Background(), f.at(effective, "exec-2"), contract.EventApplyInterest)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)

	// 1000 * 0.0149 / 365 * 30 = 1.2246..., applied at 1.22.
	amount := result.Batches[0].Instructions[0].Postings[0].Amount
	require.True(t, amount.Equal(dec("1.22")), "amount = %s", amount)
	require.Len(t, result.Schedules, 1)
	require.Equal(t, time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC), result.Schedules[0].Expression.Time())
}

func TestDepositApplyInterestZeroBalanceStillReschedules(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, depositValues())

	result, err := Deposit{}.HandleEvent(context.Background(), f.at(created.AddDate(0, 1, 0), "exec-2"), contract.EventApplyInterest)
	require.NoError(t, err)
	require.Empty(t, result.Batches)
	require.Len(t, result.Schedules, 1)
}

func TestDepositDerivedAvailableLimit(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, depositValues())
	require.NoError(t, ledger.SeedBalance(f.journal, "acc-1", ledger.TsideLiability,
		ledger.AddressDefault, "GBP", dec("250"), created))

	derived, err := Deposit{}.DerivedValues(context.Background(), f.ec)
	require.NoError(t, err)
	require.True(t, derived[ParamAvailableLimit].Equal(dec("750")))
}

func advancedValues() map[string]string {
	values := depositValues()
	values[ParamMonthlyFee] = "10"
	values[ParamFeeIncomeAccount] = "bank:fees"
	values[ParamLockoutPeriod] = "5"
	return values
}

func TestAdvancedDepositActivationRegistersFeeSchedule(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, advancedValues())

	result, err := AdvancedDeposit{}.Activate(context.Background(), f.ec)
	require.NoError(t, err)
	require.Len(t, result.Schedules, 2)
	kinds := []contract.EventKind{result.Schedules[0].Kind, result.Schedules[1].Kind}
	require.Contains(t, kinds, contract.EventApplyInterest)
	require.Contains(t, kinds, contract.EventMonthlyFee)
}

func TestAdvancedDepositWithdrawalLockout(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, advancedValues())
	require.NoError(t, ledger.SeedBalance(f.journal, "acc-1", ledger.TsideLiability,
		ledger.AddressDefault, "GBP", dec("500"), created))

	withdrawal := withdrawalFrom(t, "acc-1", "50")

	// Still inside the lockout at the inclusive boundary.
	rej, err := AdvancedDeposit{}.PrePosting(context.Background(), f.at(created.AddDate(0, 0, 5), "exec-2"), []ledger.Instruction{withdrawal})
	require.NoError(t, err)
	require.NotNil(t, rej)
	require.Equal(t, "Withdrawals not allowed during withdrawal lockout period.", rej.Message)

	rej, err = AdvancedDeposit{}.PrePosting(context.Background(), f.at(created.AddDate(0, 0, 5).Add(time.Second), "exec-3"), []ledger.Instruction{withdrawal})
	require.NoError(t, err)
	require.Nil(t, rej)
}

func TestAdvancedDepositMonthlyFeeChargedWhenInactive(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, advancedValues())

	effective := time.Date(2020, 2, 1, 9, 0, 0, 0, time.UTC)
	result, err := AdvancedDeposit{}.HandleEvent(context.Background(), f.at(effective, "exec-2"), contract.EventMonthlyFee)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	require.Equal(t, "MONTHLY_FEE", result.Batches[0].Instructions[0].EventType())
	require.Len(t, result.Schedules, 1)
}

func TestAdvancedDepositMonthlyFeeWaivedAfterDeposit(t *testing.T) {
	created := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, "acc-1", ledger.TsideLiability, created, advancedValues())

	f.commit(t, []ledger.Batch{{
		ID:           "customer-deposit",
		Instructions: []ledger.Instruction{paymentTo(t, "acc-1", "40")},
		ValueTime:    time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC),
	}})

	effective := time.Date(2020, 2, 1, 9, 0, 0, 0, time.UTC)
	result, err := AdvancedDeposit{}.HandleEvent(context.Background(), f.at(effective, "exec-2"), contract.EventMonthlyFee)
	require.NoError(t, err)
	require.Empty(t, result.Batches)
	require.Len(t, result.Schedules, 1)
}
