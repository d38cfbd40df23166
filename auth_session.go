package goRedeem

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/internal/flows"
)

// sessionView is the immutable in-memory copy readers see without locking.
type sessionView struct {
	status SessionStatus
	creds  *credential.Credentials
}

// AuthSession owns the authentication lifecycle of one terminal: status
// check, login, logout and the Authorization header. CheckStatus, Login and
// Logout are serialized; Status, User and AuthorizationHeader never block.
type AuthSession struct {
	mu     sync.Mutex
	view   atomic.Pointer[sessionView]
	deps   flows.Deps
	logger *slog.Logger
}

func newAuthSession(deps flows.Deps, logger *slog.Logger) *AuthSession {
	s := &AuthSession{deps: deps, logger: logger}
	s.view.Store(&sessionView{status: StatusUnknown})
	return s
}

// CheckStatus loads stored credentials and derives the session status.
// Expired credentials are cleared as a side effect. A storage failure yields
// StatusUnauthenticated together with the error.
func (s *AuthSession) CheckStatus(ctx context.Context) (SessionStatus, error) {
	if s == nil {
		return StatusUnknown, ErrEngineNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res := flows.RunCheckStatus(ctx, s.deps.Status)
	if res.Expired {
		s.logger.Info("goRedeem: stored session expired, credentials cleared")
	}
	if res.Err != nil {
		s.logger.Error("goRedeem: session status check failed", "error", res.Err)
	}

	if res.Credentials == nil {
		s.view.Store(&sessionView{status: StatusUnauthenticated})
		return StatusUnauthenticated, res.Err
	}

	s.view.Store(&sessionView{status: StatusAuthenticated, creds: res.Credentials})
	return StatusAuthenticated, nil
}

// Login signs in, persists the new credentials and returns the profile. On
// failure the previous session, if any, stays in place.
func (s *AuthSession) Login(ctx context.Context, email, password string) (UserProfile, error) {
	if s == nil {
		return UserProfile{}, ErrEngineNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := flows.RunLogin(ctx, email, password, s.deps.Login)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrStorage) || errors.Is(err, ErrIdentityUnavailable) {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "goRedeem: login failed", "error", err)
		return UserProfile{}, err
	}

	s.view.Store(&sessionView{status: StatusAuthenticated, creds: creds})
	s.logger.Info("goRedeem: login succeeded", "user_id", creds.User.ID, "expires_at", creds.ExpiresAtTime())
	return creds.User, nil
}

// Logout clears stored credentials and drops the in-memory session. It
// succeeds when no session exists. When clearing storage fails the in-memory
// session is still dropped and the storage error is returned.
func (s *AuthSession) Logout(ctx context.Context) error {
	if s == nil {
		return ErrEngineNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var userID string
	if v := s.view.Load(); v.creds != nil {
		userID = v.creds.User.ID
	}

	err := flows.RunLogout(ctx, userID, s.deps.Logout)
	s.view.Store(&sessionView{status: StatusUnauthenticated})
	if err != nil {
		s.logger.Error("goRedeem: logout could not clear credentials", "error", err)
		return err
	}
	s.logger.Info("goRedeem: logged out", "user_id", userID)
	return nil
}

// Status returns the last derived status without I/O.
func (s *AuthSession) Status() SessionStatus {
	if s == nil {
		return StatusUnknown
	}
	return s.view.Load().status
}

// User returns the cached profile of an authenticated session.
func (s *AuthSession) User() (UserProfile, bool) {
	if s == nil {
		return UserProfile{}, false
	}
	v := s.view.Load()
	if v.creds == nil {
		return UserProfile{}, false
	}
	return v.creds.User, true
}

// AuthorizationHeader returns "Bearer <token>" for the cached session. It does
// not check expiry; call CheckStatus first when freshness matters.
func (s *AuthSession) AuthorizationHeader() (string, bool) {
	if s == nil {
		return "", false
	}
	v := s.view.Load()
	if v.status != StatusAuthenticated || v.creds == nil || v.creds.AccessToken == "" {
		return "", false
	}
	return "Bearer " + v.creds.AccessToken, true
}

func (s *AuthSession) headerSource(context.Context) (string, bool) {
	return s.AuthorizationHeader()
}
