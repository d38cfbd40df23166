package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects optional signature verification.
type SigningMethod string

const (
	// MethodNone decodes tokens without verifying signatures.
	MethodNone SigningMethod = ""
	// MethodEd25519 verifies EdDSA signatures with an Ed25519 public key.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 verifies HMAC-SHA256 signatures with a shared secret.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrTokenMalformed is returned when the token cannot be decoded.
	ErrTokenMalformed = errors.New("identity token malformed")
	// ErrTokenIssuer is returned when the issuer claim does not match the configured issuer.
	ErrTokenIssuer = errors.New("identity token issuer mismatch")
	// ErrTokenAudience is returned when the audience claim does not contain the configured audience.
	ErrTokenAudience = errors.New("identity token audience mismatch")
	// ErrTokenSignature is returned when verification is configured and fails.
	ErrTokenSignature = errors.New("identity token signature invalid")
)

// Config controls which claims are enforced.
type Config struct {
	Issuer       string
	Audience     string
	Leeway       time.Duration
	VerifyMethod SigningMethod
	VerifyKey    []byte
}

// Inspector decodes identity tokens.
//
// Inspector is immutable after construction and safe for concurrent use.
type Inspector struct {
	config Config
}

// IdentityClaims are the claims the terminal reads from an identity token.
type IdentityClaims struct {
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// NewInspector validates cfg and returns an [Inspector].
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.VerifyMethod {
	case MethodNone:
	case MethodHS256:
		if len(cfg.VerifyKey) == 0 {
			return nil, errors.New("hs256 requires verify key")
		}
	case MethodEd25519:
		if _, err := parseEdPublicKey(cfg.VerifyKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	return &Inspector{config: cfg}, nil
}

// Inspect decodes tokenStr and enforces the configured issuer and audience.
// Expiry is reported, not enforced; callers decide what an expired token means.
func (i *Inspector) Inspect(tokenStr string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}

	if i.config.VerifyMethod == MethodNone {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	} else {
		parser := jwt.NewParser(
			jwt.WithValidMethods([]string{i.method().Alg()}),
			jwt.WithoutClaimsValidation(),
		)
		_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return i.verifyKey()
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		}
	}

	if i.config.Issuer != "" && claims.Issuer != i.config.Issuer {
		return nil, ErrTokenIssuer
	}
	if i.config.Audience != "" && !slices.Contains([]string(claims.Audience), i.config.Audience) {
		return nil, ErrTokenAudience
	}

	return claims, nil
}

// Expiry returns the exp claim shifted back by the configured leeway.
// ok is false when the token carries no exp claim.
func (i *Inspector) Expiry(claims *IdentityClaims) (time.Time, bool) {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time.Add(-i.config.Leeway), true
}

// Subject returns the provider's user identifier, preferring the sub claim.
func (c *IdentityClaims) Subject() string {
	if c == nil {
		return ""
	}
	if c.RegisteredClaims.Subject != "" {
		return c.RegisteredClaims.Subject
	}
	return c.UserID
}

func (i *Inspector) method() jwt.SigningMethod {
	switch i.config.VerifyMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (i *Inspector) verifyKey() (interface{}, error) {
	switch i.config.VerifyMethod {
	case MethodHS256:
		return i.config.VerifyKey, nil
	default:
		return parseEdPublicKey(i.config.VerifyKey)
	}
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
