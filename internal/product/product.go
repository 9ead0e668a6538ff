// Package product holds the shipped account contracts: two deposit
// variants, the personal loan, and the deposit-plan supervisor.
package product

import (
	"errors"

	"github.com/atlas-bank/atlas_core/internal/contract"
)

// Parameter names understood by the shipped products. Names are part of the
// external configuration surface and must stay stable.
const (
	ParamDenomination       = "denomination"
	ParamMaximumBalance     = "maximum_balance_limit"
	ParamOpeningBonus       = "opening_bonus"
	ParamBonusPayoutAccount = "deposit_bonus_payout_internal_account"
	ParamAvailableLimit     = "available_deposit_limit"
	ParamInterestRate       = "interest_rate"
	ParamInterestPaid       = "interest_paid_internal_account"
	ParamMonthlyFee         = "monthly_fee"
	ParamFeeIncomeAccount   = "monthly_fee_income_internal_account"
	ParamLockoutPeriod      = "opening_withdrawal_lockout_period"
	ParamLoanAmount         = "loan_amount"
	ParamDepositAccount     = "deposit_account"
	ParamInternalAccount    = "internal_account"
	ParamRateTiers          = "gross_interest_rate_tiers"
	ParamTierRanges         = "tier_ranges"
	ParamPaymentDay         = "payment_day"
	ParamLoanTerm           = "loan_term"
	ParamLoanEndDate        = "loan_end_date"
)

// ErrUnknownProduct indicates a product code no shipped contract implements.
var ErrUnknownProduct = errors.New("unknown product code")

// Registry returns the shipped contracts keyed by product code.
func Registry() map[string]contract.Contract {
	return map[string]contract.Contract{
		"deposit":          Deposit{},
		"advanced_deposit": AdvancedDeposit{},
		"personal_loan":    PersonalLoan{},
	}
}

// Lookup resolves a product code to its contract.
func Lookup(code string) (contract.Contract, error) {
	c, ok := Registry()[code]
	if !ok {
		return nil, ErrUnknownProduct
	}
	return c, nil
}

// LookupSupervisor resolves a supervisor code to its plan contract.
func LookupSupervisor(code string) (contract.Supervisor, error) {
	if code == "deposit_plan" {
		return DepositPlan{}, nil
	}
	return nil, ErrUnknownProduct
}
