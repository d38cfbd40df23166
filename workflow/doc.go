// Package workflow implements the redemption state machine driven by a
// point-of-sale operator: amount entry, card scan, a single submission and
// the retry/cancel decision after a failure.
//
// # States
//
//	AwaitingAmount --SubmitAmount--> AwaitingScan
//	AwaitingScan   --Scanned------> Submitting --> Succeeded | Failed
//	Succeeded      --Acknowledge--> AwaitingAmount
//	Succeeded      --SubmitAmount--> AwaitingScan (implicit acknowledge)
//	Failed         --Retry--------> AwaitingScan (amount kept)
//	Failed         --Resubmit-----> Submitting   (card and amount kept)
//	any but Submitting --Cancel---> AwaitingAmount
//
// # Single flight
//
// A scanner can report one physical code several times. The first accepted
// scan takes an atomic guard that is released in the same step that moves
// the workflow out of Submitting; scans arriving while the guard is held
// return ErrScanIgnored and never reach the network.
//
// A receipt number is generated when the request is built, so every
// attempt, including a resubmission, carries a fresh one.
package workflow
