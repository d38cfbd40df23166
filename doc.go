// Package goRedeem runs the gift card redemption side of a point-of-sale
// terminal: an authenticated operator session persisted in Redis and a
// redemption workflow that turns an entered amount and a scanned card into
// exactly one ledger request.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goRedeem is the public surface. It exposes [Engine], [Builder], [Config],
// [AuthSession] and [SessionGate]. Flow orchestration, rate limiting, audit
// dispatch and receipt numbering live under internal/. The credential,
// identity, jwt, redemption and workflow packages are usable on their own.
//
// # Session lifecycle
//
//	Builder.Build -> Gate().Check (load, clear if expired)
//	              -> Session().Login (identity sign-in, persist)
//	              -> Gate().Workflow (one workflow per signed-in user)
//	              -> Session().Logout (clear, workflow discarded)
//
// Tokens are never refreshed. An expired session is cleared and the
// operator signs in again.
//
// # What this package must NOT do
//
//   - Log or audit access tokens, refresh tokens or passwords.
//   - Retry a redemption on its own; retries are operator decisions.
//   - Perform I/O during Build.
package goRedeem
