package product

import (
	"context"
	"fmt"
	"time"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/interest"
	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
	"github.com/atlas-bank/atlas_core/internal/schedule"
	"github.com/atlas-bank/atlas_core/internal/validation"
)

// DepositPlan supervises a customer's deposit accounts as one plan: deposits
// are checked against the summed limit of every account on the plan, and the
// monthly fee is assessed plan-wide, waived for every account when any
// member saw a deposit.
type DepositPlan struct{}

func (DepositPlan) Code() string { return "deposit_plan" }

func (DepositPlan) PrePosting(ctx context.Context, siblings []contract.Sibling, instructions []ledger.Instruction) (*contract.Rejection, error) {
	if len(siblings) == 0 {
		return validation.CheckAggregateLimit(instructions, "", ledger.TsideLiability, nil, ""), nil
	}

	// All accounts on a plan share the first member's denomination.
	denomination, err := params.String(ctx, siblings[0].Params, ParamDenomination)
	if err != nil {
		return nil, err
	}

	balances := make([]validation.SiblingBalance, 0, len(siblings))
	for _, s := range siblings {
		snap, err := s.Balances.Latest(ctx)
		if err != nil {
			return nil, err
		}
		limit, err := params.Decimal(ctx, s.Params, ParamMaximumBalance)
		if err != nil {
			return nil, err
		}
		balances = append(balances, validation.SiblingBalance{
			AccountID: s.AccountID,
			Balance:   snap.Net(ledger.CommittedCoordinate(ledger.AddressDefault, denomination)),
			Limit:     limit,
		})
	}

	return validation.CheckAggregateLimit(instructions, targetAccount(instructions, siblings), ledger.TsideLiability, balances, denomination), nil
}

// targetAccount finds which plan member the batch credits.
func targetAccount(instructions []ledger.Instruction, siblings []contract.Sibling) string {
	members := make(map[string]bool, len(siblings))
	for _, s := range siblings {
		members[s.AccountID] = true
	}
	for _, in := range instructions {
		for _, p := range in.Postings {
			if members[p.AccountID] {
				return p.AccountID
			}
		}
	}
	return ""
}

func (DepositPlan) HandleEvent(ctx context.Context, effective time.Time, siblings []contract.Sibling, kind contract.EventKind) (*contract.EventResult, error) {
	if kind != contract.EventMonthlyFee {
		return nil, fmt.Errorf("deposit_plan: unhandled event %s", kind)
	}

	result := &contract.EventResult{
		Schedules: []contract.ScheduledEvent{
			{Kind: contract.EventMonthlyFee, Expression: schedule.NextMonthly(effective)},
		},
	}

	windowStart := effective.AddDate(0, -1, 0)
	deposits := 0
	for _, s := range siblings {
		window, err := s.History.InstructionsBetween(ctx, windowStart, effective)
		if err != nil {
			return nil, err
		}
		deposits += interest.CountQualifyingDeposits(window, s.AccountID)
	}
	// The plan waives only when the month saw at least as many qualifying
	// deposits as there are member accounts.
	if deposits >= len(siblings) {
		return result, nil
	}

	// Not enough plan activity: every account on the plan is charged.
	for _, s := range siblings {
		denomination, err := params.String(ctx, s.Params, ParamDenomination)
		if err != nil {
			return nil, err
		}
		fee, err := params.Decimal(ctx, s.Params, ParamMonthlyFee)
		if err != nil {
			return nil, err
		}
		feeIncome, err := params.String(ctx, s.Params, ParamFeeIncomeAccount)
		if err != nil {
			return nil, err
		}

		executionID := fmt.Sprintf("PLAN_%d_%s", effective.Unix(), s.AccountID)
		in, err := interest.MonthlyFee(interest.MonthlyFeeSpec{
			Amount:       fee,
			Denomination: denomination,
			AccountID:    s.AccountID,
			FeeIncomeID:  feeIncome,
			ExecutionID:  executionID,
		})
		if err != nil {
			return nil, err
		}
		if in != nil {
			result.Batches = append(result.Batches, ledger.Batch{
				ID:           "MONTHLY_FEE_" + executionID,
				Instructions: []ledger.Instruction{*in},
				ValueTime:    effective,
			})
		}
	}
	return result, nil
}
