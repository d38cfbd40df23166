package workflow

import "github.com/google/uuid"

// State identifies a workflow step.
type State int

const (
	AwaitingAmount State = iota
	AwaitingScan
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingScan:
		return "awaiting_scan"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the live workflow state. AmountMinor is set from
// AwaitingScan onwards; GiftCardID from Submitting onwards. Message holds the
// failure text in Failed and Payload the server body in Succeeded.
type Snapshot struct {
	State         State
	AmountMinor   int64
	GiftCardID    string
	ReceiptNumber string
	AttemptID     uuid.UUID
	Message       string
	Payload       []byte
}

func (s Snapshot) clone() Snapshot {
	if s.Payload != nil {
		s.Payload = append([]byte(nil), s.Payload...)
	}
	return s
}
