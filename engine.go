package consoleauth

import (
	"context"
	"errors"
	"time"

	"github.com/hostwire/consoleauth/gateway"
	internalaudit "github.com/hostwire/consoleauth/internal/audit"
	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/routeguard"
	"github.com/hostwire/consoleauth/session"
)

// Engine orchestrates the login flow, the session store, and the refresh
// coordinator. Instances are built once through [Builder.Build] and are safe
// for concurrent use afterwards.
type Engine struct {
	config  Config
	gateway *gateway.Client
	store   *session.Store
	table   *permission.Table
	machine *loginMachine
	refresh *refreshCoordinator
	audit   *internalaudit.Dispatcher
	metrics *Metrics
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Snapshot returns the current immutable session tuple.
func (e *Engine) Snapshot() session.Snapshot {
	return e.store.Snapshot()
}

// PermissionTable returns the frozen role table shared with route guards.
func (e *Engine) PermissionTable() *permission.Table {
	return e.table
}

// Phase returns the login flow's current phase for UI rendering.
func (e *Engine) Phase() LoginPhase {
	return e.machine.currentPhase()
}

// CurrentUser returns the authenticated user snapshot, or nil.
func (e *Engine) CurrentUser() *User {
	snap := e.store.Snapshot()
	if !snap.Authenticated() {
		return nil
	}
	return snap.User
}

// HasRole reports whether the authenticated user holds exactly this role.
// There is no role hierarchy: admin does not satisfy a corporate check.
func (e *Engine) HasRole(role string) bool {
	user := e.CurrentUser()
	return user != nil && user.Role == role
}

// HasPermission reports whether the authenticated user's role holds the
// exact permission slug. Safe to call on every render.
func (e *Engine) HasPermission(slug string) bool {
	user := e.CurrentUser()
	return user != nil && e.table.HasPermission(user.Role, slug)
}

// Authorize evaluates a protected route against the current session using
// the engine's permission table and configured redirect paths, counting the
// decision. Adapters that build their own [routeguard.Authority] wiring can
// call the routeguard package directly instead.
func (e *Engine) Authorize(req routeguard.Requirement, attemptedPath string) routeguard.Result {
	result := routeguard.Authorize(e.Snapshot(), e.table, req, e.config.Routes, attemptedPath)
	switch result.Decision {
	case routeguard.DecisionAllow:
		e.metricInc(MetricGuardAllowed)
	case routeguard.DecisionLoginRedirect:
		e.metricInc(MetricGuardLoginRedirect)
	case routeguard.DecisionDashboardRedirect:
		e.metricInc(MetricGuardRoleRedirect)
	case routeguard.DecisionDisabledRedirect:
		e.metricInc(MetricGuardDisabledRedirect)
	}
	return result
}

// Hydrate restores a persisted session at process start. A found record is
// only provisionally authenticated: it is revalidated against the backend
// (with a coordinated refresh if the access token has gone stale) before
// the tri-state flips to authenticated. Until then the state reads
// [session.StateUnknown] and route guards render placeholders instead of
// redirecting.
//
// A transport failure leaves the state unresolved and is returned to the
// caller for retry; a definite backend rejection clears the session.
func (e *Engine) Hydrate(ctx context.Context) (session.Snapshot, error) {
	snap, err := e.store.Hydrate(ctx)
	if err != nil {
		return snap, err
	}
	if snap.State == session.StateAnonymous {
		e.machine.loggedOut()
		return snap, nil
	}

	user, err := e.gateway.Me(ctx, snap.AccessToken)
	if errors.Is(err, gateway.ErrSessionExpired) {
		var access string
		access, err = e.refreshAccess(ctx)
		if err == nil {
			user, err = e.gateway.Me(ctx, access)
		}
	}
	switch {
	case err == nil:
		e.store.ConfirmHydration(user)
		e.machine.authenticatedExternally()
		e.metricInc(MetricHydrateRestored)
		e.emitAudit(ctx, auditEventHydrate, true, user.ID, user.Role, nil, nil)
	case errors.Is(err, gateway.ErrSessionExpired),
		errors.Is(err, gateway.ErrAccountInactive),
		errors.Is(err, gateway.ErrAccountLocked):
		// Only an authoritative rejection discards the persisted session.
		_ = e.store.ClearAuth(ctx)
		e.machine.loggedOut()
		e.metricInc(MetricHydrateRejected)
		e.emitAudit(ctx, auditEventHydrate, false, "", "", err, nil)
	default:
		// Unreachable backend, proxy 5xx, malformed body: none is a
		// verdict. Stay unknown, keep the record, let the caller retry.
		return e.store.Snapshot(), err
	}
	return e.store.Snapshot(), nil
}

// Logout clears the local session immediately and terminates the backend
// session best-effort in the background. From the caller's perspective
// logout is synchronous and cannot fail.
func (e *Engine) Logout(ctx context.Context) {
	snap := e.store.Snapshot()
	_ = e.store.ClearAuth(ctx)
	e.machine.loggedOut()
	e.metricInc(MetricLogout)

	var userID, role string
	if snap.User != nil {
		userID, role = snap.User.ID, snap.User.Role
	}
	e.emitAudit(ctx, auditEventLogout, true, userID, role, nil, nil)

	if snap.AccessToken == "" {
		return
	}
	access := snap.AccessToken
	timeout := e.config.Gateway.Timeout
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = e.gateway.Logout(bg, access)
	}()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped under
// backpressure. Drop accounting rides the metrics counters, so it reads
// zero when metrics are disabled.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.metrics == nil {
		return 0
	}
	return e.metrics.Snapshot().Counters[MetricAuditDropped]
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeGatewayLatency(start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.ObserveLatency(time.Since(start))
}

// dashboardFor resolves the post-login redirect target for a role.
func (e *Engine) dashboardFor(role string) string {
	if path, ok := e.table.DashboardPath(role); ok {
		return path
	}
	return e.config.Routes.Unauthorized
}
