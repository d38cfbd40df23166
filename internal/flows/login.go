package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/identity"
	"github.com/MrEthical07/goRedeem/internal/rate"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess     string
	LoginFailure     string
	LoginRateLimited string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	MissingCredentials error
	LoginRateLimited   error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Now func() time.Time

	SignIn      func(ctx context.Context, email, password string) (*identity.SignInResult, error)
	TokenExpiry func(idToken string) (time.Time, bool)
	Store       CredentialStore

	CheckLoginRate     func(context.Context, string) error
	IncrementLoginRate func(context.Context, string) error
	ResetLoginRate     func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin signs in against the identity provider and persists the resulting
// credentials. Nothing is written unless the provider accepts the password,
// so a failed login leaves any prior session untouched.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*credential.Credentials, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.Warn == nil {
		deps.Warn = noopWarn
	}
	if deps.SignIn == nil || deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.MissingCredentials, func() map[string]string {
			return map[string]string{"reason": "missing_credentials"}
		})
		return nil, deps.Errors.MissingCredentials
	}

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, email); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
				deps.EmitAudit(ctx, deps.Events.LoginRateLimited, false, "", deps.Errors.LoginRateLimited, func() map[string]string {
					return map[string]string{"identifier": email}
				})
				return nil, deps.Errors.LoginRateLimited
			}
			deps.Warn("goRedeem: login rate check failed", "error", err)
		}
	}

	res, err := deps.SignIn(ctx, email, password)
	if err != nil {
		if countsAsFailedAttempt(err) && deps.IncrementLoginRate != nil {
			if rerr := deps.IncrementLoginRate(ctx, email); rerr != nil {
				deps.Warn("goRedeem: login rate increment failed", "error", rerr)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     failureReason(err),
			}
		})
		return nil, err
	}

	creds, err := buildCredentials(email, res, deps)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, res.LocalID, err, func() map[string]string {
			return map[string]string{"identifier": email, "reason": "malformed_response"}
		})
		return nil, err
	}

	if err := deps.Store.Save(ctx, creds); err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.User.ID, err, func() map[string]string {
			return map[string]string{"identifier": email, "reason": "storage"}
		})
		return nil, err
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email); err != nil {
			deps.Warn("goRedeem: login rate reset failed", "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, creds.User.ID, nil, nil)
	return creds, nil
}

func buildCredentials(email string, res *identity.SignInResult, deps LoginDeps) (*credential.Credentials, error) {
	now := deps.Now()

	var expiresAt time.Time
	if res.ExpiresIn > 0 {
		expiresAt = now.Add(res.ExpiresIn)
	}
	if deps.TokenExpiry != nil {
		if exp, ok := deps.TokenExpiry(res.IDToken); ok && (expiresAt.IsZero() || exp.Before(expiresAt)) {
			expiresAt = exp
		}
	}
	if expiresAt.IsZero() {
		return nil, fmt.Errorf("%w: no token lifetime", identity.ErrMalformedResponse)
	}

	profileEmail := res.Email
	if profileEmail == "" {
		profileEmail = email
	}
	displayName := strings.TrimSpace(res.DisplayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(profileEmail, "@")
	}

	return &credential.Credentials{
		AccessToken:  res.IDToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiresAt.UnixMilli(),
		User: credential.UserProfile{
			ID:          res.LocalID,
			Email:       profileEmail,
			DisplayName: displayName,
			Registered:  res.Registered,
		},
	}, nil
}

// countsAsFailedAttempt is true for rejections by the provider, not for
// outages or broken responses.
func countsAsFailedAttempt(err error) bool {
	return errors.Is(err, identity.ErrEmailNotFound) ||
		errors.Is(err, identity.ErrInvalidPassword) ||
		errors.Is(err, identity.ErrInvalidCredentials) ||
		errors.Is(err, identity.ErrUserDisabled) ||
		errors.Is(err, identity.ErrUnknown)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, identity.ErrEmailNotFound):
		return "email_not_found"
	case errors.Is(err, identity.ErrInvalidPassword):
		return "invalid_password"
	case errors.Is(err, identity.ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, identity.ErrUnavailable):
		return "provider_unavailable"
	case errors.Is(err, identity.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "unknown"
	}
}
