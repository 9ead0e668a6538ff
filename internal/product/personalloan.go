package product

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/interest"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/loan"
	"github.com/atlas-bank/atlas_core/internal/params"
	"github.com/atlas-bank/atlas_core/internal/schedule"
	"github.com/atlas-bank/atlas_core/internal/validation"
)

// PersonalLoan is the amortized lending product: principal disbursed on
// activation, daily tiered interest accrual, monthly interest application
// and due transfers, and repayments allocated against the due balance.
type PersonalLoan struct{}

func (PersonalLoan) Code() string        { return "personal_loan" }
func (PersonalLoan) Tside() ledger.Tside { return ledger.TsideAsset }

func (PersonalLoan) Parameters() []params.Definition {
	return []params.Definition{
		{
			Name:             ParamDenomination,
			Level:            params.LevelTemplate,
			DisplayName:      "Denomination",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamLoanAmount,
			Level:            params.LevelInstance,
			DisplayName:      "How much would you like to borrow?",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamDepositAccount,
			Level:            params.LevelInstance,
			DisplayName:      "Deposit Account",
			Description:      "The account the principal is disbursed to",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamInternalAccount,
			Level:            params.LevelTemplate,
			DisplayName:      "Internal Account ID",
			UpdatePermission: params.UpdateFixed,
		},
		{
			Name:             ParamRateTiers,
			Level:            params.LevelTemplate,
			DisplayName:      "How much interest will you pay?",
			UpdatePermission: params.UpdateOpsEditable,
		},
		{
			Name:             ParamTierRanges,
			Level:            params.LevelTemplate,
			DisplayName:      "The available loan tiers",
			UpdatePermission: params.UpdateOpsEditable,
		},
		{
			Name:             ParamPaymentDay,
			Level:            params.LevelInstance,
			DisplayName:      "The day of the month that you would like to pay",
			UpdatePermission: params.UpdateUserEditable,
		},
		{
			Name:             ParamLoanTerm,
			Level:            params.LevelInstance,
			DisplayName:      "Loan term in years",
			UpdatePermission: params.UpdateFixed,
			Default:          "1",
		},
		{
			Name:             ParamLoanEndDate,
			Level:            params.LevelInstance,
			DisplayName:      "Loan End Date",
			Description:      "Optional early settlement date, forces full payoff",
			UpdatePermission: params.UpdateOpsEditable,
		},
	}
}

func (PersonalLoan) Requirements(hook contract.Hook, kind contract.EventKind) contract.Requirements {
	switch hook {
	case contract.HookActivation:
		return contract.Requirements{Parameters: true}
	case contract.HookPrePosting, contract.HookPostPosting:
		return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest, PostingWindow: contract.MonthWindow}
	case contract.HookScheduled:
		switch kind {
		case contract.EventAccrueInterest:
			return contract.Requirements{Parameters: true, Balances: contract.BalancesAtDay}
		case contract.EventTransferDue:
			return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest, LastExecution: []contract.EventKind{contract.EventTransferDue}}
		default:
			return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest}
		}
	case contract.HookDerivedValues:
		return contract.Requirements{Parameters: true, Balances: contract.BalancesLatest}
	default:
		return contract.Requirements{}
	}
}

// loanConfig is the parameter set every loan hook reads.
type loanConfig struct {
	denomination    string
	loanAmount      decimal.Decimal
	internalAccount string
	annualRate      decimal.Decimal
	termYears       int
	endDate         *time.Time
}

func readLoanConfig(ctx context.Context, ec *contract.Context) (loanConfig, error) {
	var cfg loanConfig
	var err error

	if cfg.denomination, err = params.String(ctx, ec.Params, ParamDenomination); err != nil {
		return cfg, err
	}
	if cfg.loanAmount, err = params.Decimal(ctx, ec.Params, ParamLoanAmount); err != nil {
		return cfg, err
	}
	if cfg.internalAccount, err = params.String(ctx, ec.Params, ParamInternalAccount); err != nil {
		return cfg, err
	}
	if cfg.termYears, err = params.Int(ctx, ec.Params, ParamLoanTerm); err != nil {
		return cfg, err
	}

	rangesJSON, err := params.String(ctx, ec.Params, ParamTierRanges)
	if err != nil {
		return cfg, err
	}
	ratesJSON, err := params.String(ctx, ec.Params, ParamRateTiers)
	if err != nil {
		return cfg, err
	}
	table, err := params.ParseTierTable(rangesJSON, ratesJSON)
	if err != nil {
		return cfg, err
	}
	if cfg.annualRate, err = table.RateForAmount(cfg.loanAmount); err != nil {
		return cfg, err
	}

	hasEnd, err := ec.Params.Has(ctx, ParamLoanEndDate)
	if err != nil {
		return cfg, err
	}
	if hasEnd {
		raw, err := params.String(ctx, ec.Params, ParamLoanEndDate)
		if err != nil {
			return cfg, err
		}
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return cfg, fmt.Errorf("parameter %s: %w", ParamLoanEndDate, err)
		}
		cfg.endDate = &end
	}
	return cfg, nil
}

// firstPaymentDate resolves the payment-day parameter against creation.
func firstPaymentDate(ctx context.Context, ec *contract.Context) (time.Time, error) {
	var paymentDay *int
	has, err := ec.Params.Has(ctx, ParamPaymentDay)
	if err != nil {
		return time.Time{}, err
	}
	if has {
		day, err := params.Int(ctx, ec.Params, ParamPaymentDay)
		if err != nil {
			return time.Time{}, err
		}
		paymentDay = &day
	}
	day, roll := schedule.ResolvePaymentDay(paymentDay, ec.CreatedAt)
	return schedule.FirstPaymentDate(ec.CreatedAt, day, roll), nil
}

func (PersonalLoan) Activate(ctx context.Context, ec *contract.Context) (*contract.ActivationResult, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	loanAmount, err := params.Decimal(ctx, ec.Params, ParamLoanAmount)
	if err != nil {
		return nil, err
	}
	depositAccount, err := params.String(ctx, ec.Params, ParamDepositAccount)
	if err != nil {
		return nil, err
	}

	disbursement, err := ledger.Transfer(ledger.TransferSpec{
		Amount:              loanAmount,
		Denomination:        denomination,
		FromAccountID:       ec.AccountID,
		FromAccountAddress:  ledger.AddressDefault,
		ToAccountID:         depositAccount,
		ToAccountAddress:    ledger.AddressDefault,
		ClientTransactionID: ec.ExecutionID + "_PRINCIPAL",
		Details: map[string]string{
			ledger.DetailDescription: "Payment of loan principal",
			ledger.DetailEventType:   "PRINCIPAL",
		},
	})
	if err != nil {
		return nil, err
	}

	firstPayment, err := firstPaymentDate(ctx, ec)
	if err != nil {
		return nil, err
	}
	nextMidnight := midnightAfter(ec.EffectiveTime)

	return &contract.ActivationResult{
		Batches: []ledger.Batch{{
			ID:           ec.ExecutionID + "_PRINCIPAL",
			Instructions: []ledger.Instruction{disbursement},
			ValueTime:    ec.EffectiveTime,
		}},
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventAccrueInterest, Expression: schedule.At(nextMidnight)},
			{Kind: contract.EventTransferDue, Expression: schedule.At(firstPayment)},
			{Kind: contract.EventApplyInterest, Expression: schedule.At(firstPayment)},
		},
	}, nil
}

func midnightAfter(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

func (PersonalLoan) PrePosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.Rejection, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	if rej := validation.CheckDenomination(instructions, denomination); rej != nil {
		return rej, nil
	}

	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	due := balances.Net(ledger.CommittedCoordinate(ledger.AddressDue, denomination))

	window, err := ec.History.InstructionsBetween(ctx, ec.EffectiveTime.AddDate(0, -1, 0), ec.EffectiveTime)
	if err != nil {
		return nil, err
	}
	recent := loan.PaymentContribution(window, ec.AccountID, denomination)

	return loan.Guard(loan.GuardSpec{
		AccountID:      ec.AccountID,
		Denomination:   denomination,
		CreatedAt:      ec.CreatedAt,
		Effective:      ec.EffectiveTime,
		TotalDue:       due.Add(recent),
		RecentPayments: recent,
		Proposed:       instructions,
	}), nil
}

// PostPosting allocates an accepted repayment against the due balance.
func (PersonalLoan) PostPosting(ctx context.Context, ec *contract.Context, instructions []ledger.Instruction) (*contract.EventResult, error) {
	denomination, err := params.String(ctx, ec.Params, ParamDenomination)
	if err != nil {
		return nil, err
	}
	contribution := loan.PaymentContribution(instructions, ec.AccountID, denomination)
	if !contribution.IsPositive() {
		return nil, nil
	}

	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	due := balances.Net(ledger.CommittedCoordinate(ledger.AddressDue, denomination))
	if !due.IsPositive() {
		return nil, nil
	}
	if contribution.GreaterThan(due) {
		contribution = due
	}

	allocation, err := loan.AllocatePayment(ec.AccountID, contribution, denomination, ec.ExecutionID)
	if err != nil {
		return nil, err
	}
	return &contract.EventResult{
		Batches: []ledger.Batch{{
			ID:           "ALLOCATE_REPAYMENT_" + ec.ExecutionID,
			Instructions: []ledger.Instruction{*allocation},
			ValueTime:    ec.EffectiveTime,
		}},
	}, nil
}

func (PersonalLoan) HandleEvent(ctx context.Context, ec *contract.Context, kind contract.EventKind) (*contract.EventResult, error) {
	cfg, err := readLoanConfig(ctx, ec)
	if err != nil {
		return nil, err
	}
	switch kind {
	case contract.EventAccrueInterest:
		return loanAccrueInterest(ctx, ec, cfg)
	case contract.EventApplyInterest:
		return loanApplyInterest(ctx, ec, cfg)
	case contract.EventTransferDue:
		return loanTransferDue(ctx, ec, cfg)
	default:
		return nil, fmt.Errorf("personal_loan: unhandled event %s", kind)
	}
}

func loanAccrueInterest(ctx context.Context, ec *contract.Context, cfg loanConfig) (*contract.EventResult, error) {
	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventAccrueInterest, Expression: schedule.At(ec.EffectiveTime.AddDate(0, 0, 1))},
		},
	}

	balances, err := ec.Balances.Before(ctx, ec.EffectiveTime)
	if err != nil {
		return nil, err
	}
	outstanding := balances.Net(ledger.CommittedCoordinate(ledger.AddressDefault, cfg.denomination))

	accruer := interest.Accruer{
		Precision:  interest.LoanAccrualPrecision,
		DaysInYear: interest.DaysInYear,
		From:       interest.AccountAddress{AccountID: ec.AccountID, Address: ledger.AddressAccruedInterest},
		To:         interest.AccountAddress{AccountID: cfg.internalAccount, Address: ledger.AddressAccruedIncoming},
	}
	in, _, err := accruer.Accrue(outstanding, cfg.annualRate, cfg.denomination, ec.ExecutionID)
	if err != nil {
		return nil, err
	}
	if in != nil {
		result.Batches = append(result.Batches, ledger.Batch{
			ID:           "ACCRUE_INTEREST_" + ec.ExecutionID,
			Instructions: []ledger.Instruction{*in},
			ValueTime:    ec.EffectiveTime,
		})
	}
	return result, nil
}

func loanApplyInterest(ctx context.Context, ec *contract.Context, cfg loanConfig) (*contract.EventResult, error) {
	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventApplyInterest, Expression: schedule.NextMonthly(ec.EffectiveTime)},
		},
	}

	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	accrued := balances.Net(ledger.CommittedCoordinate(ledger.AddressAccruedInterest, cfg.denomination))

	applier := interest.Applier{Precision: interest.FulfillmentPrecision, ReversePositiveRemainder: true}
	batch, _, err := applier.Apply(interest.ApplySpec{
		Accrued:      accrued,
		Denomination: cfg.denomination,
		CustomerLeg: interest.Movement{
			From: interest.AccountAddress{AccountID: ec.AccountID, Address: ledger.AddressDefault},
			To:   interest.AccountAddress{AccountID: ec.AccountID, Address: ledger.AddressAccruedInterest},
		},
		InternalLeg: interest.Movement{
			From: interest.AccountAddress{AccountID: cfg.internalAccount, Address: ledger.AddressAccruedIncoming},
			To:   interest.AccountAddress{AccountID: cfg.internalAccount, Address: ledger.AddressDefault},
		},
		RemainderLeg: &interest.Movement{
			From: interest.AccountAddress{AccountID: cfg.internalAccount, Address: ledger.AddressAccruedIncoming},
			To:   interest.AccountAddress{AccountID: ec.AccountID, Address: ledger.AddressAccruedInterest},
		},
		ExecutionID: ec.ExecutionID,
		ValueTime:   ec.EffectiveTime,
	})
	if err != nil {
		return nil, err
	}
	if batch != nil {
		result.Batches = append(result.Batches, *batch)
	}
	return result, nil
}

func loanTransferDue(ctx context.Context, ec *contract.Context, cfg loanConfig) (*contract.EventResult, error) {
	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventTransferDue, Expression: schedule.NextMonthly(ec.EffectiveTime)},
		},
	}

	firstFiring := true
	if ec.LastExecuted != nil {
		if _, fired := ec.LastExecuted(contract.EventTransferDue); fired {
			firstFiring = false
		}
	}

	firstPayment, err := firstPaymentDate(ctx, ec)
	if err != nil {
		return nil, err
	}
	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}

	in, _, err := loan.DueTransfer(loan.DueTransferSpec{
		AccountID:    ec.AccountID,
		Denomination: cfg.denomination,
		Principal:    cfg.loanAmount,
		AnnualRate:   cfg.annualRate,
		TermYears:    cfg.termYears,
		CreatedAt:    ec.CreatedAt,
		FirstPayment: firstPayment,
		Effective:    ec.EffectiveTime,
		EndDate:      cfg.endDate,
		FirstFiring:  firstFiring,
		Balances:     balances,
		ExecutionID:  ec.ExecutionID,
	})
	if err != nil {
		return nil, err
	}
	if in != nil {
		result.Batches = append(result.Batches, ledger.Batch{
			ID:           "TRANSFER_DUE_" + ec.ExecutionID,
			Instructions: []ledger.Instruction{*in},
			ValueTime:    ec.EffectiveTime,
		})
	}
	return result, nil
}

// DerivedValues reports the remaining balance a full early settlement would
// have to cover.
func (PersonalLoan) DerivedValues(ctx context.Context, ec *contract.Context) (map[string]decimal.Decimal, error) {
	balances, err := ec.Balances.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]decimal.Decimal{
		"total_outstanding": balances.Total().Round(interest.FulfillmentPrecision),
	}, nil
}
