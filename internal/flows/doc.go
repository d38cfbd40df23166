// Package flows contains pure-function orchestrators for the session
// operations of the Engine: login, status check and logout.
//
// Each flow function (RunLogin, RunCheckStatus, RunLogout) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies, so the flows can be tested with in-memory fakes.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, identity client,
// token inspector, rate limiter, audit dispatcher and metrics. They do NOT own
// any of these resources and never serialize calls themselves; the caller
// holds the session lock.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goRedeem (to avoid import cycles).
//   - Log or emit access tokens, refresh tokens or passwords.
package flows
