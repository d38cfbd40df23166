package flows

import "context"

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout int
}

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	Logout string
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Store CredentialStore

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LogoutMetrics
	Events  LogoutEvents
}

// RunLogout clears stored credentials. Clearing an empty store succeeds.
func RunLogout(ctx context.Context, userID string, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}

	if err := deps.Store.Clear(ctx); err != nil {
		deps.EmitAudit(ctx, deps.Events.Logout, false, userID, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, true, userID, nil, nil)
	return nil
}
