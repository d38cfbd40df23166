package flows

import (
	"context"

	"github.com/MrEthical07/goRedeem/credential"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// session methods to the matching flow implementation.
type Deps struct {
	Login  LoginDeps
	Status StatusDeps
	Logout LogoutDeps
}

// CredentialStore is the persistence surface the session flows need.
// *credential.Store satisfies it.
type CredentialStore interface {
	Save(ctx context.Context, creds *credential.Credentials) error
	Load(ctx context.Context) (*credential.Credentials, error)
	Clear(ctx context.Context) error
}

// AuditFunc emits one audit event. meta is evaluated lazily.
type AuditFunc func(ctx context.Context, event string, success bool, userID string, err error, meta func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}

func noopWarn(string, ...any) {}
