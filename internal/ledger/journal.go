package ledger

import (
	"context"
	"time"
)

// Journal is the host-side ledger backend. Contracts only ever read snapshots
// and propose batches; the journal owns commitment and balance bookkeeping.
type Journal interface {
	// EnsureAccount registers an account and its accounting side. Registering
	// an existing account is a no-op.
	EnsureAccount(ctx context.Context, accountID string, tside Tside) error

	// Commit atomically applies every instruction of the batch, or none when
	// any leg fails. A batch id or client transaction id that was committed
	// before yields ErrDuplicateBatch and no balance movement.
	Commit(ctx context.Context, batch Batch) error

	// SnapshotAt returns net balances from activity up to and including t.
	SnapshotAt(ctx context.Context, accountID string, t time.Time) (Snapshot, error)

	// SnapshotBefore returns net balances from activity strictly before t.
	SnapshotBefore(ctx context.Context, accountID string, t time.Time) (Snapshot, error)

	// SnapshotLatest returns the live view of the account's balances.
	SnapshotLatest(ctx context.Context, accountID string) (Snapshot, error)

	// InstructionsBetween returns the instructions touching the account with
	// value time in (from, to], oldest first. Activity-based fee logic reads
	// its trailing window through this.
	InstructionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]Instruction, error)
}
