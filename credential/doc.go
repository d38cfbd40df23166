// Package credential persists the terminal's single authenticated session in a
// namespaced Redis key set.
//
// # Key layout
//
// A session occupies four string keys under one prefix:
//
//	<prefix>:access_token    opaque identity token
//	<prefix>:refresh_token   opaque refresh token
//	<prefix>:expires_at      expiry as decimal epoch milliseconds
//	<prefix>:user            encoded [UserProfile]
//
// Writes are issued in one MULTI/EXEC transaction. Readers still treat a missing
// or unparsable key as "no session", so a half-written set never resurrects a
// session.
//
// # What this package must NOT do
//
//   - Decide whether a session is expired. Expiry policy belongs to the caller.
//   - Log or otherwise expose token values.
package credential
