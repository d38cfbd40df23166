package workflow

import "errors"

var (
	// ErrInvalidAmount is returned for non-numeric or non-positive amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrEmptyScanPayload is returned when a scan trims to an empty card id.
	ErrEmptyScanPayload = errors.New("empty scan payload")
	// ErrInvalidTransition is returned when an event does not apply to the current state.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrSubmissionInFlight is returned by Cancel while a request is outstanding.
	ErrSubmissionInFlight = errors.New("redemption submission in flight")
	// ErrScanIgnored is returned for scans arriving while the single-flight guard is held.
	ErrScanIgnored = errors.New("scan ignored: submission already in progress")
)
