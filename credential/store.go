package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrStorageUnavailable is returned when the underlying key-value store fails.
var ErrStorageUnavailable = errors.New("credential storage unavailable")

// ErrNoCredentials is returned by Load when no complete, parsable session is stored.
var ErrNoCredentials = errors.New("no stored credentials")

// ErrIncompleteCredentials is returned by Save when a required field is empty.
var ErrIncompleteCredentials = errors.New("incomplete credentials")

const (
	fieldAccessToken  = "access_token"
	fieldRefreshToken = "refresh_token"
	fieldExpiresAt    = "expires_at"
	fieldUser         = "user"
)

// Store is a Redis-backed credential store owning exactly one session.
//
// Store does not serialize callers; the owning session must not run Save, Load
// and Clear concurrently.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] backed by the given Redis client. prefix sets the
// key namespace and defaults to "redeem" when empty.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "redeem"
	}
	return &Store{
		redis:  rdb,
		prefix: prefix,
	}
}

// Keys share a hash tag so the transaction stays in one cluster slot.
func (s *Store) key(field string) string {
	return "{" + s.prefix + "}:" + field
}

func (s *Store) keys() []string {
	return []string{
		s.key(fieldAccessToken),
		s.key(fieldRefreshToken),
		s.key(fieldExpiresAt),
		s.key(fieldUser),
	}
}

// Save writes all four fields in one transaction.
//
//	Performance: 1 MULTI/EXEC with 4 SETs.
func (s *Store) Save(ctx context.Context, creds *Credentials) error {
	if !creds.complete() {
		return ErrIncompleteCredentials
	}

	profile, err := EncodeProfile(creds.User)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(fieldAccessToken), creds.AccessToken, 0)
		pipe.Set(ctx, s.key(fieldRefreshToken), creds.RefreshToken, 0)
		pipe.Set(ctx, s.key(fieldExpiresAt), encodeExpiry(creds.ExpiresAt), 0)
		pipe.Set(ctx, s.key(fieldUser), profile, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return nil
}

// Load returns the stored credentials, or [ErrNoCredentials] if any field is
// absent or cannot be parsed.
//
//	Performance: 1 MGET.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	values, err := s.redis.MGet(ctx, s.keys()...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if len(values) != 4 {
		return nil, ErrNoCredentials
	}

	raw := make([]string, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok || str == "" {
			return nil, ErrNoCredentials
		}
		raw[i] = str
	}

	expiresAt, err := decodeExpiry(raw[2])
	if err != nil {
		return nil, ErrNoCredentials
	}
	user, err := DecodeProfile([]byte(raw[3]))
	if err != nil {
		return nil, ErrNoCredentials
	}

	return &Credentials{
		AccessToken:  raw[0],
		RefreshToken: raw[1],
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

// Clear removes all four fields. Clearing an empty store succeeds.
//
//	Performance: 1 DEL.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.keys()...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
