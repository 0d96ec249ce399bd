package consoleauth

import (
	"context"
	"time"

	internalaudit "github.com/hostwire/consoleauth/internal/audit"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventTwoFactorRequired    = "two_factor_required"
	auditEventTwoFactorSuccess     = "two_factor_success"
	auditEventTwoFactorFailure     = "two_factor_failure"
	auditEventEnrollmentRequired   = "enrollment_required"
	auditEventEnrollmentCompleted  = "enrollment_completed"
	auditEventEnrollmentFailure    = "enrollment_failure"
	auditEventLoginCancelled       = "login_cancelled"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventSessionExpired       = "session_expired"
	auditEventHydrate              = "session_hydrate"
	auditEventLogout               = "logout"
	auditEventSessionRevoked       = "session_revoked"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
)

// emitAudit forwards one event to the dispatcher. metadata is a lazy
// closure so callers pay for map construction only when auditing is on.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, role string,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Role:      role,
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	e.audit.Emit(ctx, event)
}
