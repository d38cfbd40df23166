package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
)

// StatusMetrics carries metric IDs needed by the status flow.
type StatusMetrics struct {
	SessionExpired int
}

// StatusEvents carries audit event names used by the status flow.
type StatusEvents struct {
	SessionExpired string
}

// StatusDeps captures status-check dependencies.
type StatusDeps struct {
	Now   func() time.Time
	Store CredentialStore

	MetricInc func(int)
	EmitAudit AuditFunc
	Warn      func(string, ...any)

	Metrics StatusMetrics
	Events  StatusEvents
}

// StatusResult is the outcome of a status check. Credentials is non-nil only
// for a live session. Expired reports that stored credentials were found past
// their expiry and cleared.
type StatusResult struct {
	Credentials *credential.Credentials
	Expired     bool
	Err         error
}

// RunCheckStatus loads stored credentials and clears them when expired.
func RunCheckStatus(ctx context.Context, deps StatusDeps) StatusResult {
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

	creds, err := deps.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, credential.ErrNoCredentials) {
			return StatusResult{}
		}
		return StatusResult{Err: err}
	}

	if !creds.Expired(deps.Now()) {
		return StatusResult{Credentials: creds}
	}

	deps.MetricInc(deps.Metrics.SessionExpired)
	deps.EmitAudit(ctx, deps.Events.SessionExpired, true, creds.User.ID, nil, func() map[string]string {
		return map[string]string{"expires_at": creds.ExpiresAtTime().UTC().Format(time.RFC3339)}
	})

	if err := deps.Store.Clear(ctx); err != nil {
		deps.Warn("goRedeem: clearing expired credentials failed", "error", err)
		return StatusResult{Expired: true, Err: err}
	}
	return StatusResult{Expired: true}
}
