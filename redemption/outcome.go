package redemption

import "errors"

var (
	// ErrNetwork is matched by failures where no server answer was obtained.
	ErrNetwork = errors.New("redemption network error")
	// ErrServer is matched by failures the ledger answered with a non-2xx status.
	ErrServer = errors.New("redemption server error")
)

const unknownErrorMessage = "unknown error"

// ErrorKind classifies a failed redemption.
type ErrorKind uint8

const (
	// KindNetwork means the request did not produce a server response.
	KindNetwork ErrorKind = iota + 1
	// KindServer means the ledger rejected the request.
	KindServer
	// KindRequest means the request failed local validation and was never sent.
	KindRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// Error is a failed redemption. Message is shown to the operator verbatim.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return unknownErrorMessage
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindServer:
		return ErrServer
	case KindRequest:
		return ErrInvalidRequest
	default:
		return ErrNetwork
	}
}

// Outcome is the tagged result of one redemption: exactly one of Payload (on
// success) or Err is meaningful.
type Outcome struct {
	Payload []byte
	Err     *Error
}

// Success returns a successful outcome carrying the server payload verbatim.
func Success(payload []byte) Outcome {
	return Outcome{Payload: payload}
}

// Failure returns a failed outcome.
func Failure(kind ErrorKind, status int, message string) Outcome {
	if message == "" {
		message = unknownErrorMessage
	}
	return Outcome{Err: &Error{Kind: kind, Status: status, Message: message}}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Message returns the failure message, or "" on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
