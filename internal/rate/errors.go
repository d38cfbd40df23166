package rate

import "errors"

var (
	// ErrRateLimited is returned when an identifier has exhausted its attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures from the counter store.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
