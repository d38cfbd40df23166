package goRedeem

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/internal/audit"
	"github.com/MrEthical07/goRedeem/internal/flows"
	"github.com/MrEthical07/goRedeem/redemption"
	"github.com/MrEthical07/goRedeem/workflow"
)

// Engine wires the credential store, identity client, redemption client,
// audit dispatcher and metrics behind one AuthSession and one SessionGate.
//
// Engine instances are built once through [Builder.Build] and are safe for
// concurrent use afterwards.
type Engine struct {
	config   Config
	logger   *slog.Logger
	clock    func() time.Time
	store    *credential.Store
	redeemer Redeemer
	receipts ReceiptSource
	merchant redemption.Merchant
	audit    *audit.Dispatcher
	metrics  *Metrics
	session  *AuthSession
	gate     *SessionGate
}

// Close stops the audit dispatcher after draining queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Session returns the engine's AuthSession.
func (e *Engine) Session() *AuthSession {
	if e == nil {
		return nil
	}
	return e.session
}

// Gate returns the engine's SessionGate.
func (e *Engine) Gate() *SessionGate {
	if e == nil {
		return nil
	}
	return e.gate
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Ping checks that credential storage is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped reports events dropped because the dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditStats reports delivered, dropped and failed audit events.
func (e *Engine) AuditStats() AuditStats {
	if e == nil {
		return AuditStats{}
	}
	return e.audit.Stats()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared state and can be used concurrently.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return emptySnapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// NewWorkflow builds a fresh redemption workflow for this terminal's
// merchant. Most callers use Gate().Workflow instead.
func (e *Engine) NewWorkflow() (*Workflow, error) {
	if e == nil || e.redeemer == nil || e.receipts == nil {
		return nil, ErrEngineNotReady
	}
	return workflow.New(e.redeemer, e.receipts, e.merchant,
		workflow.WithClock(e.clock),
		workflow.WithHooks(e.workflowHooks()),
	)
}

func (e *Engine) workflowHooks() workflow.Hooks {
	return workflow.Hooks{
		OnTransition: func(from, to workflow.Snapshot) {
			e.logger.Debug("goRedeem: workflow transition", "from", from.State.String(), "to", to.State.String())
		},
		OnScanIgnored: func() {
			e.metricInc(MetricScanIgnored)
			e.logger.Debug("goRedeem: duplicate scan ignored")
			e.emitAudit(context.Background(), auditEventDuplicateScan, true, e.currentUserID(), nil, nil)
		},
		OnRejected: func(err error) {
			e.metricInc(MetricValidationRejected)
			e.logger.Debug("goRedeem: workflow input rejected", "error", err)
		},
		OnOutcome: e.recordOutcome,
	}
}

func (e *Engine) recordOutcome(req redemption.Request, out redemption.Outcome, elapsed time.Duration) {
	if e.metrics != nil {
		e.metrics.Observe(MetricRedemptionLatency, elapsed)
	}

	attemptID := req.AttemptID.String()
	meta := func() map[string]string {
		m := map[string]string{
			"amount_minor":   strconv.FormatInt(req.AmountMinor, 10),
			"receipt_number": req.ReceiptNumber,
			"card":           maskCard(req.GiftCardID),
		}
		if out.Err != nil && out.Err.Status != 0 {
			m["status"] = strconv.Itoa(out.Err.Status)
		}
		return m
	}

	if out.OK() {
		e.metricInc(MetricRedemptionSuccess)
		e.logger.Info("goRedeem: redemption succeeded",
			"attempt_id", attemptID, "receipt_number", req.ReceiptNumber,
			"amount_minor", req.AmountMinor, "elapsed", elapsed)
		e.emitAttemptAudit(context.Background(), auditEventRedemptionSuccess, true, e.currentUserID(), attemptID, nil, meta)
		return
	}

	e.metricInc(MetricRedemptionFailure)
	e.logger.Warn("goRedeem: redemption failed",
		"attempt_id", attemptID, "kind", out.Err.Kind.String(),
		"status", out.Err.Status, "message", out.Err.Message, "elapsed", elapsed)
	e.emitAttemptAudit(context.Background(), auditEventRedemptionFailure, false, e.currentUserID(), attemptID, out.Err, meta)
}

func (e *Engine) currentUserID() string {
	if u, ok := e.session.User(); ok {
		return u.ID
	}
	return ""
}

// maskCard keeps the last four characters of a card id.
func maskCard(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return "****" + id[len(id)-4:]
}

func (e *Engine) flowDeps(login flows.LoginDeps) flows.Deps {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }
	emit := func(ctx context.Context, event string, success bool, userID string, err error, meta func() map[string]string) {
		e.emitAudit(ctx, event, success, userID, err, meta)
	}
	warn := func(msg string, args ...any) { e.logger.Warn(msg, args...) }

	login.Now = e.clock
	login.Store = e.store
	login.MetricInc = metricInc
	login.EmitAudit = emit
	login.Warn = warn
	login.Metrics = flows.LoginMetrics{
		LoginSuccess:     int(MetricLoginSuccess),
		LoginFailure:     int(MetricLoginFailure),
		LoginRateLimited: int(MetricLoginRateLimited),
	}
	login.Events = flows.LoginEvents{
		LoginSuccess:     auditEventLoginSuccess,
		LoginFailure:     auditEventLoginFailure,
		LoginRateLimited: auditEventLoginRateLimited,
	}
	login.Errors = flows.LoginErrors{
		EngineNotReady:     ErrEngineNotReady,
		MissingCredentials: ErrMissingCredentials,
		LoginRateLimited:   ErrLoginRateLimited,
	}

	return flows.Deps{
		Login: login,
		Status: flows.StatusDeps{
			Now:       e.clock,
			Store:     e.store,
			MetricInc: metricInc,
			EmitAudit: emit,
			Warn:      warn,
			Metrics:   flows.StatusMetrics{SessionExpired: int(MetricSessionExpired)},
			Events:    flows.StatusEvents{SessionExpired: auditEventSessionExpired},
		},
		Logout: flows.LogoutDeps{
			Store:     e.store,
			MetricInc: metricInc,
			EmitAudit: emit,
			Metrics:   flows.LogoutMetrics{Logout: int(MetricLogout)},
			Events:    flows.LogoutEvents{Logout: auditEventLogout},
		},
	}
}
