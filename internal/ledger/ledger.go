// Package ledger defines the balance model shared by every account contract:
// multi-address balance coordinates, balanced double-entry postings, and the
// journal interface the host commits posting batches through.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateBatch indicates a batch (or one of its client transaction
	// ids) was already committed; redeliveries must be treated as no-ops.
	ErrDuplicateBatch = errors.New("duplicate posting batch")

	// ErrUnknownAccount occurs when a posting references an account id the
	// journal has never been told about.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrNegativeAmount occurs when a transfer is built with a negative amount.
	ErrNegativeAmount = errors.New("posting amount must not be negative")

	// ErrUnbalancedInstruction indicates credit and debit legs do not sum to
	// the same value, which would break double-entry conservation.
	ErrUnbalancedInstruction = errors.New("instruction legs are not balanced")
)

// DefaultAsset is the asset all shipped products denominate balances in.
const DefaultAsset = "COMMERCIAL_BANK_MONEY"

// Balance addresses used by the shipped products. An address partitions an
// account's balance into independent sub-balances.
const (
	AddressDefault         = "DEFAULT"
	AddressDue             = "DUE"
	AddressAccruedInterest = "ACCRUED_INTEREST"
	AddressAccruedIncoming = "ACCRUED_INCOMING"
	AddressAccruedOutgoing = "ACCRUED_OUTGOING"
)

// Phase distinguishes settled funds from authorized-but-unsettled ones.
type Phase string

const (
	PhaseCommitted  Phase = "COMMITTED"
	PhasePendingIn  Phase = "PENDING_IN"
	PhasePendingOut Phase = "PENDING_OUT"
)

// Tside is the accounting side of an account type. It determines the sign
// convention of net balances: liability accounts net credits minus debits,
// asset accounts net debits minus credits.
type Tside string

const (
	TsideAsset     Tside = "ASSET"
	TsideLiability Tside = "LIABILITY"
)

// Sign returns the contribution sign of a single leg under this side.
func (t Tside) Sign(credit bool) decimal.Decimal {
	if credit == (t == TsideLiability) {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// Coordinate identifies one sub-balance of an account. It is a value type
// usable as a map key.
type Coordinate struct {
	Address      string
	Asset        string
	Denomination string
	Phase        Phase
}

// CommittedCoordinate is shorthand for the settled coordinate at an address.
func CommittedCoordinate(address, denomination string) Coordinate {
	return Coordinate{
		Address:      address,
		Asset:        DefaultAsset,
		Denomination: denomination,
		Phase:        PhaseCommitted,
	}
}

// Snapshot is a point-in-time view of net balances keyed by coordinate.
// Coordinates with no recorded activity are defined to be zero, not missing.
type Snapshot map[Coordinate]decimal.Decimal

// Net returns the net balance at the coordinate, zero when absent.
func (s Snapshot) Net(c Coordinate) decimal.Decimal {
	if v, ok := s[c]; ok {
		return v
	}
	return decimal.Zero
}

// Total sums the net balances of every coordinate in the snapshot. Loan
// payoff uses this to compute the full remaining balance across addresses.
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

func (s Snapshot) add(c Coordinate, amount decimal.Decimal) {
	s[c] = s.Net(c).Add(amount)
}
