package contract

import "fmt"

// Reason classifies a business rejection for the host and API clients.
type Reason string

const (
	ReasonWrongDenomination Reason = "WRONG_DENOMINATION"
	ReasonAgainstTerms      Reason = "AGAINST_TNC"
	ReasonCustom            Reason = "CLIENT_CUSTOM_REASON"
)

// Rejection is the structured outcome of a failed validation. It is a value,
// not an error: business-rule violations are expected and must carry a reason
// code plus a message with the relevant computed figures. Hooks return a nil
// *Rejection on acceptance; a Go error means misconfiguration and aborts the
// whole hook invocation.
type Rejection struct {
	Reason  Reason
	Message string
}

// Reject builds a rejection with an interpolated message.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
