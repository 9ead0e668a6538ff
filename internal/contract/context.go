package contract

import (
	"context"
	"time"

	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
)

// BalanceReader is the account-scoped snapshot view a hook reads balances
// through. Implementations never expose mutation; contracts only propose
// postings.
type BalanceReader interface {
	At(ctx context.Context, t time.Time) (ledger.Snapshot, error)
	Before(ctx context.Context, t time.Time) (ledger.Snapshot, error)
	Latest(ctx context.Context) (ledger.Snapshot, error)
}

// PostingHistory fetches the account's committed instructions in a trailing
// window, for activity-based checks.
type PostingHistory interface {
	InstructionsBetween(ctx context.Context, from, to time.Time) ([]ledger.Instruction, error)
}

// Context bundles everything a hook invocation may read or emit: account
// metadata, parameter and balance accessors, posting history, and execution
// bookkeeping. It is built fresh by the host adapter for every invocation;
// nothing here is ambient or shared.
type Context struct {
	AccountID     string
	CreatedAt     time.Time
	EffectiveTime time.Time

	// ExecutionID is unique per hook invocation and seeds idempotency keys
	// so host redelivery cannot double-post.
	ExecutionID string

	Params   params.Store
	Balances BalanceReader
	History  PostingHistory

	// LastExecuted reports when the named event last fired for this account,
	// if ever. First-firing-only behavior is guarded with this.
	LastExecuted func(kind EventKind) (time.Time, bool)
}

type journalBalances struct {
	journal   ledger.Journal
	accountID string
}

// NewJournalBalances scopes a journal to one account's snapshot reads.
func NewJournalBalances(j ledger.Journal, accountID string) BalanceReader {
	return journalBalances{journal: j, accountID: accountID}
}

func (b journalBalances) At(ctx context.Context, t time.Time) (ledger.Snapshot, error) {
	return b.journal.SnapshotAt(ctx, b.accountID, t)
}

func (b journalBalances) Before(ctx context.Context, t time.Time) (ledger.Snapshot, error) {
	return b.journal.SnapshotBefore(ctx, b.accountID, t)
}

func (b journalBalances) Latest(ctx context.Context) (ledger.Snapshot, error) {
	return b.journal.SnapshotLatest(ctx, b.accountID)
}

type journalHistory struct {
	journal   ledger.Journal
	accountID string
}

// NewJournalHistory scopes a journal to one account's posting history.
func NewJournalHistory(j ledger.Journal, accountID string) PostingHistory {
	return journalHistory{journal: j, accountID: accountID}
}

func (h journalHistory) InstructionsBetween(ctx context.Context, from, to time.Time) ([]ledger.Instruction, error) {
	return h.journal.InstructionsBetween(ctx, h.accountID, from, to)
}
