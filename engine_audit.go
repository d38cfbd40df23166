package goRedeem

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goRedeem/internal/audit"
)

const (
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventLoginRateLimited  = "login_rate_limited"
	auditEventLogout            = "logout"
	auditEventSessionExpired    = "session_expired"
	auditEventRedemptionSuccess = "redemption_success"
	auditEventRedemptionFailure = "redemption_failure"
	auditEventDuplicateScan     = "duplicate_scan_ignored"
)

// AuditErrorCode is the coarse error class recorded on audit events.
type AuditErrorCode string

const (
	auditErrMissingCredentials AuditErrorCode = "missing_credentials"
	auditErrEmailNotFound      AuditErrorCode = "email_not_found"
	auditErrInvalidPassword    AuditErrorCode = "invalid_password"
	auditErrUserDisabled       AuditErrorCode = "user_disabled"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrProviderRejected   AuditErrorCode = "provider_rejected"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrStorage            AuditErrorCode = "storage_unavailable"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrNetwork            AuditErrorCode = "network"
	auditErrServer             AuditErrorCode = "server"
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	e.emitAttemptAudit(ctx, eventType, success, userID, "", err, metadataBuilder)
}

func (e *Engine) emitAttemptAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	attemptID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := audit.Event{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		AttemptID: attemptID,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingCredentials):
		return auditErrMissingCredentials
	case errors.Is(err, ErrEmailNotFound):
		return auditErrEmailNotFound
	case errors.Is(err, ErrInvalidPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrUserDisabled):
		return auditErrUserDisabled
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrIdentityUnknown):
		return auditErrProviderRejected
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrStorage):
		return auditErrStorage
	case errors.Is(err, ErrIdentityUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrRedemptionNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrRedemptionServer):
		return auditErrServer
	case errors.Is(err, ErrInvalidRedemptionRequest):
		return auditErrInvalidRequest
	default:
		return auditErrInternal
	}
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}
