package goRedeem

import (
	"errors"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/identity"
	"github.com/MrEthical07/goRedeem/redemption"
	"github.com/MrEthical07/goRedeem/workflow"
)

var (
	// ErrEngineNotReady is returned when an Engine method runs on a nil or half-built engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrUnknownEnvironment is returned when REDEEM_ENV names no known environment.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrLoginRateLimited is returned after too many failed sign-ins for one email.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrNotAuthenticated is returned by the gate when no live session exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Storage errors.
var (
	ErrStorage       = credential.ErrStorageUnavailable
	ErrNoCredentials = credential.ErrNoCredentials
)

// Identity provider rejections. An unrecognized provider code surfaces as
// *identity.ProviderError, which matches ErrIdentityUnknown.
var (
	ErrEmailNotFound       = identity.ErrEmailNotFound
	ErrInvalidPassword     = identity.ErrInvalidPassword
	ErrUserDisabled        = identity.ErrUserDisabled
	ErrInvalidCredentials  = identity.ErrInvalidCredentials
	ErrIdentityUnknown     = identity.ErrUnknown
	ErrIdentityUnavailable = identity.ErrUnavailable
)

// Workflow and redemption errors.
var (
	ErrInvalidAmount      = workflow.ErrInvalidAmount
	ErrEmptyScanPayload   = workflow.ErrEmptyScanPayload
	ErrInvalidTransition  = workflow.ErrInvalidTransition
	ErrSubmissionInFlight = workflow.ErrSubmissionInFlight
	ErrScanIgnored        = workflow.ErrScanIgnored
	ErrRedemptionNetwork  = redemption.ErrNetwork
	ErrRedemptionServer   = redemption.ErrServer

	ErrInvalidRedemptionRequest = redemption.ErrInvalidRequest
)
