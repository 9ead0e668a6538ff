// Package validation implements the pre-acceptance gate run against every
// incoming posting batch. Checks are ordered and short-circuit on the first
// failure; acceptance has no side effects.
package validation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// CheckDenomination rejects any batch containing a posting outside the
// account's configured denomination.
func CheckDenomination(instructions []ledger.Instruction, denomination string) *contract.Rejection {
	for _, in := range instructions {
		for _, p := range in.Postings {
			if p.Denomination != denomination {
				return contract.Reject(contract.ReasonWrongDenomination,
					"Only postings in %s are allowed.", denomination)
			}
		}
	}
	return nil
}

// CheckDepositLimit projects the batch's net effect on the spendable
// committed balance and rejects when the result exceeds the configured
// maximum. A projection exactly at the limit is accepted.
func CheckDepositLimit(instructions []ledger.Instruction, accountID string, tside ledger.Tside, current ledger.Snapshot, denomination string, maximum decimal.Decimal) *contract.Rejection {
	coord := ledger.CommittedCoordinate(ledger.AddressDefault, denomination)
	contribution := ledger.Contribution(instructions, accountID, tside).Net(coord)
	projected := current.Net(coord).Add(contribution)
	if projected.GreaterThan(maximum) {
		return contract.Reject(contract.ReasonAgainstTerms,
			"Incoming deposit breaches deposit limit of %s.", maximum)
	}
	return nil
}

// CheckWithdrawalLockout rejects withdrawals effective within the lockout
// window after account creation. The boundary is inclusive: a withdrawal at
// exactly creation plus the lockout period is still rejected. Authorisations
// count: any outflow leg against the spendable address is refused regardless
// of phase, so a pending hold cannot sidestep the lockout.
func CheckWithdrawalLockout(instructions []ledger.Instruction, accountID string, tside ledger.Tside, created, effective time.Time, lockoutDays int) *contract.Rejection {
	if lockoutDays <= 0 {
		return nil
	}
	lockoutEnd := created.AddDate(0, 0, lockoutDays)
	if effective.After(lockoutEnd) {
		return nil
	}
	for _, in := range instructions {
		for _, p := range in.Postings {
			if p.AccountID != accountID || p.AccountAddress != ledger.AddressDefault {
				continue
			}
			if tside.Sign(p.Credit).IsNegative() {
				return contract.Reject(contract.ReasonAgainstTerms,
					"Withdrawals not allowed during withdrawal lockout period.")
			}
		}
	}
	return nil
}

// SiblingBalance is one plan member's contribution to an aggregate check.
type SiblingBalance struct {
	AccountID string
	Balance   decimal.Decimal
	Limit     decimal.Decimal
}

// CheckAggregateLimit runs the plan-level checks across sibling deposit
// accounts: a plan with no members accepts nothing, only single-instruction
// batches are supported, and the summed projected balance must stay within
// the summed per-account limits.
func CheckAggregateLimit(instructions []ledger.Instruction, targetAccountID string, tside ledger.Tside, siblings []SiblingBalance, denomination string) *contract.Rejection {
	if len(siblings) == 0 {
		return contract.Reject(contract.ReasonCustom,
			"Cannot process postings until a deposit account is associated to the plan")
	}
	if len(instructions) > 1 {
		return contract.Reject(contract.ReasonCustom,
			"Currently we do not support more than one posting instruction per batch")
	}

	coord := ledger.CommittedCoordinate(ledger.AddressDefault, denomination)
	contribution := ledger.Contribution(instructions, targetAccountID, tside).Net(coord)

	total, limit := contribution, decimal.Zero
	for _, s := range siblings {
		total = total.Add(s.Balance)
		limit = limit.Add(s.Limit)
	}
	if total.GreaterThan(limit) {
		return contract.Reject(contract.ReasonAgainstTerms,
			"Total balance %s exceed total limit %s across all deposit accounts", total, limit)
	}
	return nil
}
