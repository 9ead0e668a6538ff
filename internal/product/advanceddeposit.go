package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/interest"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
	"github.com/atlas-bank/atlas_core/internal/schedule"
	"github.com/atlas-bank/atlas_core/internal/validation"
)

// AdvancedDeposit extends the basic deposit with a withdrawal lockout after
// opening and a monthly maintenance fee waived in months with at least one
// customer deposit.
type AdvancedDeposit struct{}

func (AdvancedDeposit) Code() string        { return "advanced_deposit" }
func (AdvancedDeposit) Tside() ledger.Tside { return ledger.TsideLiability }

func (AdvancedDeposit) Parameters() []params.Definition {
	defs := depositParameters()
	return append(defs,
		params.Definition{
			Name:             ParamMonthlyFee,
			Level:            params.LevelTemplate,
			DisplayName:      "Monthly Fee",
			Description:      "Maintenance fee charged in months without deposits",
			UpdatePermission: params.UpdateOpsEditable,
			Default:          "0",
		},
		params.Definition{
			Name:             ParamFeeIncomeAccount,
			Level:            params.LevelTemplate,
			DisplayName:      "Monthly Fee Income Internal Account",
			UpdatePermission: params.UpdateFixed,
		},
		params.Definition{
			Name:             ParamLockoutPeriod,
			Level:            params.LevelTemplate,
			DisplayName:      "Opening Withdrawal Lockout Period",
			Description:      "Days after opening during which withdrawals are refused",
			UpdatePermission: params.UpdateFixed,
			Default:          "0",
		},
	)
}

func (AdvancedDeposit) Requirements(hook contract.Hook, kind contract.EventKind) contract.Requirements {
	if hook == contract.HookScheduled && kind == contract.EventMonthlyFee {
		return contract.Requirements{Parameters: true, PostingWindow: contract.MonthWindow}
	}
	return Deposit{}.Requirements(hook, kind)
}

func (AdvancedDeposit) Activate(ctx context.Context, ec *contract.Context) (*contract.ActivationResult, error) {
	batch, err := openingBonusBatch(ctx, ec)
	if err != nil {
		return nil, err
	}
	oneMonthLater := schedule.NextMonthly(ec.EffectiveTime)
	result := &contract.ActivationResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventApplyInterest, Expression: oneMonthLater},
			{Kind: contract.EventMonthlyFee, Expression: oneMonthLater},
		},
	}
	if batch != nil {
		result.Batches = append(result.Batches, *batch)
	}
	return result, nil
}

func (AdvancedDeposit) PrePosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.Rejection, error) {
	rej, err := depositPrePosting(ctx, ec, instructions)
	if rej != nil || err != nil {
		return rej, err
	}

	lockoutDays, err := params.Int(ctx, ec.Params, ParamLockoutPeriod)
	if err != nil {
		return nil, err
	}
	return validation.CheckWithdrawalLockout(instructions, ec.AccountID, ledger.TsideLiability,
		ec.CreatedAt, ec.EffectiveTime, lockoutDays), nil
}

func (AdvancedDeposit) PostPosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.EventResult, error) {
	return nil, nil
}

func (AdvancedDeposit) HandleEvent(ctx context.Context, ec *contract.Context, kind contract.EventKind) (*contract.EventResult, error) {
	switch kind {
	case contract.EventApplyInterest:
		return applyMonthlyInterest(ctx, ec)
	case contract.EventMonthlyFee:
		return chargeMonthlyFee(ctx, ec)
	default:
		return nil, fmt.Errorf("advanced_deposit: unhandled event %s", kind)
	}
}

// chargeMonthlyFee assesses the maintenance fee when the trailing month saw
// no qualifying customer deposit. The event always reschedules.
func chargeMonthlyFee(ctx context.Context, ec *contract.Context) (*contract.EventResult, error) {
	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventMonthlyFee, Expression: schedule.NextMonthly(ec.EffectiveTime)},
		},
	}

	windowStart := ec.EffectiveTime.AddDate(0, -1, 0)
	window, err := ec.History.InstructionsBetween(ctx, windowStart, ec.EffectiveTime)
	if err != nil {
		return nil, err
	}
	if interest.CountQualifyingDeposits(window, ec.AccountID) > 0 {
		return result, nil
	}

	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	fee, err := params.Decimal(ctx, ec.Params, ParamMonthlyFee)
	if err != nil {
		return nil, err
	}
	feeIncome, err := params.String(ctx, ec.Params, ParamFeeIncomeAccount)
	if err != nil {
		return nil, err
	}

	in, err := interest.MonthlyFee(interest.MonthlyFeeSpec{
		Amount:       fee,
		Denomination: denomination,
		AccountID:    ec.AccountID,
		FeeIncomeID:  feeIncome,
		ExecutionID:  ec.ExecutionID,
	})
	if err != nil {
		return nil, err
	}
	if in != nil {
		result.Batches = append(result.Batches, ledger.Batch{
			ID:           fmt.Sprintf("MONTHLY_FEE_%s", ec.ExecutionID),
			Instructions: []ledger.Instruction{*in},
			ValueTime:    ec.EffectiveTime,
		})
	}
	return result, nil
}

func (AdvancedDeposit) DerivedValues(ctx context.Context, ec *contract.Context) (map[string]decimal.Decimal, error) {
	return availableDepositLimit(ctx, ec)
}
