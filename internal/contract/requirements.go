package contract

import "time"

// Hook names the invocation points a product implements.
type Hook string

const (
	HookActivation    Hook = "activation"
	HookPrePosting    Hook = "pre_posting"
	HookPostPosting   Hook = "post_posting"
	HookScheduled     Hook = "scheduled_event"
	HookDerivedValues Hook = "derived_values"
)

// BalanceScope names which snapshot a hook needs the host to make available.
type BalanceScope string

const (
	BalancesNone   BalanceScope = ""
	BalancesLatest BalanceScope = "latest"
	BalancesAtDay  BalanceScope = "1 day"
)

// Requirements is a hook's static data manifest: what the host adapter must
// fetch before invoking it. Declaring needs up front replaces runtime
// annotations; the manifest is fixed per (hook, event kind).
type Requirements struct {
	Parameters    bool
	Balances      BalanceScope
	PostingWindow time.Duration
	LastExecution []EventKind
}

// MonthWindow approximates the trailing month used by activity checks; the
// hooks themselves always compute the window from calendar months.
const MonthWindow = 31 * 24 * time.Hour
