package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	Prefix      string
	MaxAttempts int
	Cooldown    time.Duration
}

// Enabled reports whether the limiter enforces anything.
func (c Config) Enabled() bool {
	return c.MaxAttempts > 0 && c.Cooldown > 0
}

// Limiter counts failed sign-in attempts per email using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "redeem"
	}
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckLogin returns ErrRateLimited once the email has used up its budget.
func (l *Limiter) CheckLogin(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled() {
		return nil
	}

	count, err := l.redis.Get(ctx, l.loginKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// IncrementLogin records a failed sign-in for the email.
func (l *Limiter) IncrementLogin(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled() {
		return nil
	}

	key := l.loginKey(email)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// ResetLogin clears the counter after a successful sign-in.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if l == nil || !l.config.Enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.loginKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the current failed-attempt count. Missing keys are zero.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	if l == nil {
		return 0, nil
	}
	count, err := l.redis.Get(ctx, l.loginKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) loginKey(email string) string {
	return l.config.Prefix + ":login:" + strings.ToLower(strings.TrimSpace(email))
}
