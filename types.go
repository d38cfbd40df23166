package goRedeem

import (
	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/redemption"
	"github.com/MrEthical07/goRedeem/workflow"
)

// SessionStatus is derived from stored credentials and never persisted.
type SessionStatus uint8

const (
	// StatusUnknown means CheckStatus has not run yet.
	StatusUnknown SessionStatus = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

type (
	UserProfile   = credential.UserProfile
	Credentials   = credential.Credentials
	Merchant      = redemption.Merchant
	Workflow      = workflow.Workflow
	WorkflowState = workflow.State
	Snapshot      = workflow.Snapshot
)

// ReceiptSource yields receipt numbers for redemption attempts.
type ReceiptSource = workflow.ReceiptSource

// Redeemer submits redemption requests.
type Redeemer = workflow.Redeemer
