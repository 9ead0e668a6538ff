package contract

import (
	"fmt"

	"github.com/atlas-bank/atlas_core/internal/schedule"
)

// EventKind enumerates the scheduled timers the shipped products understand.
// Dispatch is a switch over this closed set; an unknown kind is a
// configuration error, never silently ignored.
type EventKind string

const (
	EventAccrueInterest EventKind = "ACCRUE_INTEREST"
	EventApplyInterest  EventKind = "APPLY_INTEREST"
	EventMonthlyFee     EventKind = "MONTHLY_FEE"
	EventTransferDue    EventKind = "TRANSFER_DUE"
)

// ParseEventKind validates an externally supplied event name.
func ParseEventKind(name string) (EventKind, error) {
	switch kind := EventKind(name); kind {
	case EventAccrueInterest, EventApplyInterest, EventMonthlyFee, EventTransferDue:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", name)
	}
}

// ScheduledEvent names a recurring timer and its next fire expression. The
// host owns dispatch; contracts only declare and update these.
type ScheduledEvent struct {
	Kind       EventKind
	Expression schedule.Expression
}
