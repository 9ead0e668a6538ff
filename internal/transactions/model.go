// Package transactions is the incoming posting gate: it maps API posting
// types to ledger instructions, runs contract validation, commits accepted
// batches and triggers post-posting reactions.
package transactions

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-bank/atlas_core/internal/contract"
	"github.com/atlas-bank/atlas_core/internal/ledger"
)

// SuspenseAccountID is the counterparty side of externally originated
// postings. External payment rails settle against it.
const SuspenseAccountID = "bank:suspense"

// Type enumerates the supported API posting types.
type Type string

const (
	TypeInboundHardSettlement  Type = "inbound_hard_settlement"
	TypeOutboundHardSettlement Type = "outbound_hard_settlement"
	TypeInboundAuthorisation   Type = "inbound_authorisation"
	TypeOutboundAuthorisation  Type = "outbound_authorisation"
)

// ParseType validates an externally supplied posting type.
func ParseType(name string) (Type, error) {
	switch t := Type(name); t {
	case TypeInboundHardSettlement, TypeOutboundHardSettlement,
		TypeInboundAuthorisation, TypeOutboundAuthorisation:
		return t, nil
	default:
		return "", fmt.Errorf("unknown posting type %q", name)
	}
}

// inbound reports whether value flows into the account.
func (t Type) inbound() bool {
	return t == TypeInboundHardSettlement || t == TypeInboundAuthorisation
}

// phase maps the posting type onto the balance phase it settles against.
func (t Type) phase() ledger.Phase {
	switch t {
	case TypeInboundAuthorisation:
		return ledger.PhasePendingIn
	case TypeOutboundAuthorisation:
		return ledger.PhasePendingOut
	default:
		return ledger.PhaseCommitted
	}
}

// Submission is one posting request against an account.
type Submission struct {
	AccountID           string
	Type                Type
	Amount              decimal.Decimal
	Denomination        string
	ClientTransactionID string
	Details             map[string]string
}

// Result is the outcome of a submission: the committed batch id on
// acceptance, or the rejection that refused it.
type Result struct {
	Accepted  bool
	BatchID   string
	Rejection *contract.Rejection
}
