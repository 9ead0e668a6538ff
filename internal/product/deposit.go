package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
	"github.com/atlas-bank/atlas_core/internal/schedule"
	"github.com/atlas-bank/atlas_core/internal/validation"
)

var thirty = decimal.NewFromInt(30)

// Deposit is the basic interest-bearing deposit account: an opening bonus on
// activation and a simple monthly interest sweep credited straight to the
// spendable balance.
type Deposit struct{}

func (Deposit) Code() string        { return "deposit" }
func (Deposit) Tside() ledger.Tside { return ledger.TsideLiability }

func (Deposit) Parameters() []params.Definition {
	return depositParameters()
}

func depositParameters() []params.Definition {
	return []params.Definition{
		{
			Name:             ParamDenomination,
			Level:            params.LevelTemplate,
			DisplayName:      "Denomination",
			Description:      "Default denomination for the account",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamMaximumBalance,
			Level:            params.LevelTemplate,
			DisplayName:      "Maximum Deposit Limit",
			Description:      "The total balance the account may not exceed",
			UpdatePermission: params.UpdateOpsEditable,
		},
		{
			Name:             ParamOpeningBonus,
			Level:            params.LevelTemplate,
			DisplayName:      "Opening Bonus",
			Description:      "Bonus paid into the account on opening",
			UpdatePermission: params.UpdateOpsEditable,
			Default:          "0",
		},
		{
			Name:             ParamBonusPayoutAccount,
			Level:            params.LevelTemplate,
			DisplayName:      "Deposit Bonus Payout Internal Account",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamInterestRate,
			Level:            params.LevelTemplate,
			DisplayName:      "Interest Rate (APR)",
			UpdatePermission: params.UpdateOpsEditable,
		},
		{
			Name:             ParamInterestPaid,
			Level:            params.LevelTemplate,
			DisplayName:      "Interest Paid Internal Account",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:        ParamAvailableLimit,
			Level:       params.LevelInstance,
			DisplayName: "Available Deposit Limit",
			Derived:     true,
		},
	}
}

func (Deposit) Requirements(hook contract.Hook, kind contract.EventKind) contract.Requirements {
	switch hook {
	case contract.HookActivation:
		return contract.Requirements{Parameters: true}
	case contract.HookPrePosting, contract.HookDerivedValues:
		return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest}
	case contract.HookScheduled:
		return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest}
	default:
		return contract.Requirements{}
	}
}

func (Deposit) Activate(ctx context.Context, ec *contract.Context) (*contract.ActivationResult, error) {
	batch, err := openingBonusBatch(ctx, ec)
	if err != nil {
		return nil, err
	}
	result := &contract.ActivationResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventApplyInterest, Expression: schedule.NextMonthly(ec.EffectiveTime)},
		},
	}
	if batch != nil {
		result.Batches = append(result.Batches, *batch)
	}
	return result, nil
}

// openingBonusBatch pays the opening bonus from the payout internal account.
// A zero bonus pays nothing.
func openingBonusBatch(ctx context.Context, ec *contract.Context) (*ledger.Batch, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	bonus, err := params.Decimal(ctx, ec.Params, ParamOpeningBonus)
	if err != nil {
		return nil, err
	}
	if !bonus.IsPositive() {
		return nil, nil
	}
	payoutAccount, err := params.String(ctx, ec.Params, ParamBonusPayoutAccount)
	if err != nil {
		return nil, err
	}

	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              bonus,
		Denomination:        denomination,
		FromAccountID:       payoutAccount,
		FromAccountAddress:  ledger.AddressDefault,
		ToAccountID:         ec.AccountID,
		ToAccountAddress:    ledger.AddressDefault,
		ClientTransactionID: fmt.Sprintf("OPENING_BONUS_%s", ec.ExecutionID),
		Details: map[string]string{
			ledger.DetailDescription: fmt.Sprintf("Opening bonus of %s %s paid", bonus, denomination),
			ledger.DetailEventType:   "OPENING_BONUS",
		},
	})
	if err != nil {
		return nil, err
	}
	return &ledger.Batch{
		ID:           fmt.Sprintf("OPENING_BONUS_%s", ec.ExecutionID),
		Instructions: []ledger.Instruction{in},
		ValueTime:    ec.EffectiveTime,
	}, nil
}

func (Deposit) PrePosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.Rejection, error) {
	return depositPrePosting(ctx, ec, instructions)
}

func depositPrePosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.Rejection, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	if rej := validation.CheckDenomination(instructions, denomination); rej != nil {
		return rej, nil
	}

	limit, err := params.Decimal(ctx, ec.Params, ParamMaximumBalance)
	if err != nil {
		return nil, err
	}
	current, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if rej := validation.CheckDepositLimit(instructions, ec.AccountID, ledger.TsideLiability, current, denomination, limit); rej != nil {
		return rej, nil
	}
	return nil, nil
}

func (Deposit) PostPosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.EventResult, error) {
	return nil, nil
}

func (Deposit) HandleEvent(ctx context.Context, ec *contract.Context, kind contract.EventKind) (*contract.EventResult, error) {
	switch kind {
	case contract.EventApplyInterest:
		return applyMonthlyInterest(ctx, ec)
	default:
		return nil, fmt.Errorf("deposit: unhandled event %s", kind)
	}
}

// applyMonthlyInterest credits one month of interest, thirty days at the
// daily rate, straight into the spendable balance. The event always
// reschedules, even when nothing was credited.
func applyMonthlyInterest(ctx context.Context, ec *contract.Context) (*contract.EventResult, error) {
	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventApplyInterest, Expression: schedule.NextMonthly(ec.EffectiveTime)},
		},
	}

	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	rate, err := params.Decimal(ctx, ec.Params, ParamInterestRate)
	if err != nil {
		return nil, err
	}
	paidFrom, err := params.String(ctx, ec.Params, ParamInterestPaid)
	if err != nil {
		return nil, err
	}

	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	balance := balances.Net(ledger.CommittedCoordinate(ledger.AddressDefault, denomination))

	dailyRate := rate.Div(decimal.NewFromInt(365))
	amount := balance.Mul(dailyRate).Mul(thirty).Round(2)
	if !amount.IsPositive() {
		return result, nil
	}

	in, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              amount,
		Denomination:        denomination,
		FromAccountID:       paidFrom,
		FromAccountAddress:  ledger.AddressDefault,
		ToAccountID:         ec.AccountID,
		ToAccountAddress:    ledger.AddressDefault,
		ClientTransactionID: fmt.Sprintf("APPLY_INTEREST_%s", ec.ExecutionID),
		Details: map[string]string{
			ledger.DetailDescription: fmt.Sprintf("Applying interest of %s %s at daily rate of %s", amount, denomination, dailyRate),
			ledger.DetailEventType:   "APPLY_INTEREST",
		},
	})
	if err != nil {
		return nil, err
	}
	result.Batches = append(result.Batches, ledger.Batch{
		ID:           fmt.Sprintf("APPLY_INTEREST_%s", ec.ExecutionID),
		Instructions: []ledger.Instruction{in},
		ValueTime:    ec.EffectiveTime,
	})
	return result, nil
}

func (Deposit) DerivedValues(ctx context.Context, ec *contract.Context) (map[string]decimal.Decimal, error) {
	return availableDepositLimit(ctx, ec)
}

func availableDepositLimit(ctx context.Context, ec *contract.Context) (map[string]decimal.Decimal, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	limit, err := params.Decimal(ctx, ec.Params, ParamMaximumBalance)
	if err != nil {
		return nil, err
	}
	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	balance := balances.Net(ledger.CommittedCoordinate(ledger.AddressDefault, denomination))
	return map[string]decimal.Decimal{
		ParamAvailableLimit: limit.Sub(balance),
	}, nil
}
