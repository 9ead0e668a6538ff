package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instruction detail keys carried for idempotent replay and activity filtering.
const (
	DetailDescription = "description"
	DetailEventType   = "event_type"
	DetailExternalID  = "ext_client_transaction_id"
)

// Posting is a single ledger leg. Postings are only ever built in matched
// credit/debit pairs via Transfer.
type Posting struct {
	Credit         bool
	Amount         decimal.Decimal
	Denomination   string
	AccountID      string
	AccountAddress string
	Asset          string
	Phase          Phase
}

// Coordinate returns the balance coordinate this leg settles against.
func (p Posting) Coordinate() Coordinate {
	return Coordinate{
		Address:      p.AccountAddress,
		Asset:        p.Asset,
		Denomination: p.Denomination,
		Phase:        p.Phase,
	}
}

// Instruction is an ordered set of postings committed as one unit, plus
// metadata. ClientTransactionID makes host redelivery idempotent.
type Instruction struct {
	Postings            []Posting
	Details             map[string]string
	ClientTransactionID string
}

// EventType reports the activity tag used by fee/activity filtering.
func (in Instruction) EventType() string {
	return in.Details[DetailEventType]
}

// Validate enforces double-entry conservation: the credit legs and debit legs
// of an instruction must sum to the same value.
func (in Instruction) Validate() error {
	credits, debits := decimal.Zero, decimal.Zero
	for _, p := range in.Postings {
		if p.Amount.IsNegative() {
			return ErrNegativeAmount
		}
		if p.Credit {
			credits = credits.Add(p.Amount)
		} else {
			debits = debits.Add(p.Amount)
		}
	}
	if !credits.Equal(debits) {
		return ErrUnbalancedInstruction
	}
	return nil
}

// Batch is the unit of atomic commitment: the journal applies all
// instructions of a batch or none of them.
type Batch struct {
	ID           string
	Instructions []Instruction
	ValueTime    time.Time
}

// TransferSpec describes a balanced movement of value between two
// (account, address) pairs.
type TransferSpec struct {
	Amount              decimal.Decimal
	Denomination        string
	FromAccountID       string
	FromAccountAddress  string
	ToAccountID         string
	ToAccountAddress    string
	Asset               string
	Phase               Phase
	ClientTransactionID string
	Details             map[string]string
}

// Transfer builds the instruction for a spec: one credit leg on the
// destination and one debit leg of equal amount on the source. Construction
// is pure; nothing moves until the batch is handed to a journal. Callers are
// responsible for suppressing transfers whose computed amount rounds to zero.
func Transfer(spec TransferSpec) (Instruction, error) {
	if spec.Amount.IsNegative() {
		return Instruction{}, ErrNegativeAmount
	}
	asset := spec.Asset
	if asset == "" {
		asset = DefaultAsset
	}
	phase := spec.Phase
	if phase == "" {
		phase = PhaseCommitted
	}
	return Instruction{
		Postings: []Posting{
			{
				Credit:         true,
				Amount:         spec.Amount,
				Denomination:   spec.Denomination,
				AccountID:      spec.ToAccountID,
				AccountAddress: spec.ToAccountAddress,
				Asset:          asset,
				Phase:          phase,
			},
			{
				Credit:         false,
				Amount:         spec.Amount,
				Denomination:   spec.Denomination,
				AccountID:      spec.FromAccountID,
				AccountAddress: spec.FromAccountAddress,
				Asset:          asset,
				Phase:          phase,
			},
		},
		Details:             spec.Details,
		ClientTransactionID: spec.ClientTransactionID,
	}, nil
}

// Contribution computes the net effect of a set of instructions on one
// account's coordinates under the account's side convention. Validation uses
// this to project balances before anything is committed.
func Contribution(instructions []Instruction, accountID string, tside Tside) Snapshot {
	snap := make(Snapshot)
	for _, in := range instructions {
		for _, p := range in.Postings {
			if p.AccountID != accountID {
				continue
			}
			snap.add(p.Coordinate(), tside.Sign(p.Credit).Mul(p.Amount))
		}
	}
	return snap
}
