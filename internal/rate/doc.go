// Package rate implements the Redis-backed sign-in throttle used by the
// authenticated session.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:login:<email>" with the email trimmed and lower-cased.
//
// A disabled limiter (MaxAttempts <= 0) never touches Redis.
package rate
