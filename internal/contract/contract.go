// Package contract defines the hook model account products implement and the
// evaluation context the host invokes them with. Hooks are pure with respect
// to the ledger: they read snapshots and return directives; the host commits.
package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/ledger"
	"github.com/atlas-bank/atlas_core/internal/params"
)

// ActivationResult carries what account activation proposes: posting batches
// to commit and the scheduled events to register.
type ActivationResult struct {
	Batches   []ledger.Batch
	Schedules []ScheduledEvent
}

// EventResult carries a hook's proposed batches and schedule updates.
type EventResult struct {
	Batches   []ledger.Batch
	Schedules []ScheduledEvent
}

// Contract is one account product's behavior. Implementations live in
// internal/product, one per product. All hooks may return a configuration
// error, which aborts the invocation before any posting is proposed.
type Contract interface {
	// Code identifies the product (e.g. "personal_loan").
	Code() string

	// Tside is the accounting side every account of this product uses.
	Tside() ledger.Tside

	// Parameters declares the template and instance parameters the product
	// reads, including derived ones.
	Parameters() []params.Definition

	// Requirements is the static data manifest for a hook: the host adapter
	// consults it to know what to load before invoking.
	Requirements(hook Hook, kind EventKind) Requirements

	// Activate runs once when an account is created.
	Activate(ctx context.Context, ec *Context) (*ActivationResult, error)

	// PrePosting gates a proposed instruction batch. A non-nil rejection
	// refuses the batch; acceptance is a nil rejection and nil error.
	PrePosting(ctx context.Context, ec *Context, instructions []ledger.Instruction) (*Rejection, error)

	// PostPosting reacts to an accepted, committed batch (e.g. repayment
	// allocation). It runs strictly after PrePosting accepted the batch.
	PostPosting(ctx context.Context, ec *Context, instructions []ledger.Instruction) (*EventResult, error)

	// HandleEvent runs one scheduled timer firing.
	HandleEvent(ctx context.Context, ec *Context, kind EventKind) (*EventResult, error)

	// DerivedValues computes read-only values from parameters and balances.
	DerivedValues(ctx context.Context, ec *Context) (map[string]decimal.Decimal, error)
}

// Sibling is a read-only view of one supervised account: its metadata plus
// parameter and balance accessors. Supervisors must treat siblings as
// independently owned views and never propose postings against them directly.
type Sibling struct {
	AccountID string
	CreatedAt time.Time
	Params    params.Store
	Balances  BalanceReader
	History   PostingHistory
}

// Supervisor is a plan-level contract coordinating sibling accounts.
type Supervisor interface {
	Code() string

	// PrePosting validates a batch destined for one supervised account in
	// the context of every sibling on the plan.
	PrePosting(ctx context.Context, siblings []Sibling, instructions []ledger.Instruction) (*Rejection, error)

	// HandleEvent runs a plan-level timer firing.
	HandleEvent(ctx context.Context, effective time.Time, siblings []Sibling, kind EventKind) (*EventResult, error)
}
