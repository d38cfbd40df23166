// Package audit implements async event dispatching for session and
// redemption events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, slog, no-op).
//   - [Dispatcher]: buffered async relay that either drops or blocks when full.
//   - [Event]: structured audit record with timestamp, type, user, attempt id and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the Engine and flow functions do.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goRedeem or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
