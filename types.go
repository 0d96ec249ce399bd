package consoleauth

import (
	"io"

	"github.com/hostwire/consoleauth/gateway"
	internalaudit "github.com/hostwire/consoleauth/internal/audit"
	internalmetrics "github.com/hostwire/consoleauth/internal/metrics"
	"github.com/hostwire/consoleauth/session"
)

// User is the immutable user snapshot held for the session lifetime. The
// backend owns it; the client refetches it at login and refresh and never
// mutates it.
type User = session.Identity

// SessionInfo describes one active backend session.
type SessionInfo = gateway.SessionInfo

// TwoFactorEnrollment carries the secret, QR code, and backup codes of a
// mandatory 2FA setup. Backup codes are surfaced exactly once and never
// persisted client-side.
type TwoFactorEnrollment = gateway.Enrollment

// PendingTwoFactorChallenge is the single-use handle issued after valid
// credentials when a second factor is outstanding.
type PendingTwoFactorChallenge struct {
	PendingToken string
}

// OutcomeKind discriminates the three observable results of a login step.
type OutcomeKind uint8

const (
	// OutcomeAuthenticated means the session is established.
	OutcomeAuthenticated OutcomeKind = iota
	// OutcomeTwoFactorRequired means a pending challenge awaits a code.
	OutcomeTwoFactorRequired
	// OutcomeEnrollmentRequired means the role mandates 2FA and the account
	// has none configured yet.
	OutcomeEnrollmentRequired
)

// LoginOutcome is returned by [Engine.Login], [Engine.CompleteTwoFactor],
// and [Engine.VerifyTwoFactorEnrollment]. On OutcomeAuthenticated,
// RedirectPath is the role's default dashboard for the post-login handoff.
// On OutcomeEnrollmentRequired, Enrollment holds the setup material.
type LoginOutcome struct {
	Kind         OutcomeKind
	User         *User
	Enrollment   *TwoFactorEnrollment
	RedirectPath string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricTwoFactorRequired     = internalmetrics.MetricTwoFactorRequired
	MetricTwoFactorSuccess      = internalmetrics.MetricTwoFactorSuccess
	MetricTwoFactorFailure      = internalmetrics.MetricTwoFactorFailure
	MetricEnrollmentRequired    = internalmetrics.MetricEnrollmentRequired
	MetricEnrollmentCompleted   = internalmetrics.MetricEnrollmentCompleted
	MetricLoginCancelled        = internalmetrics.MetricLoginCancelled
	MetricLoginSuperseded       = internalmetrics.MetricLoginSuperseded
	MetricRefreshSuccess        = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure        = internalmetrics.MetricRefreshFailure
	MetricRefreshDeduplicated   = internalmetrics.MetricRefreshDeduplicated
	MetricSessionExpired        = internalmetrics.MetricSessionExpired
	MetricHydrateRestored       = internalmetrics.MetricHydrateRestored
	MetricHydrateRejected       = internalmetrics.MetricHydrateRejected
	MetricLogout                = internalmetrics.MetricLogout
	MetricSessionRevoked        = internalmetrics.MetricSessionRevoked
	MetricPasswordResetRequest  = internalmetrics.MetricPasswordResetRequest
	MetricPasswordResetConfirm  = internalmetrics.MetricPasswordResetConfirm
	MetricGuardAllowed          = internalmetrics.MetricGuardAllowed
	MetricGuardLoginRedirect    = internalmetrics.MetricGuardLoginRedirect
	MetricGuardRoleRedirect     = internalmetrics.MetricGuardRoleRedirect
	MetricGuardDisabledRedirect = internalmetrics.MetricGuardDisabledRedirect
	MetricAuditDropped          = internalmetrics.MetricAuditDropped
)

// Metrics holds atomic counters and an optional latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot
