package consoleauth

import (
	"context"
	"errors"
)

// ListSessions returns the account's active backend sessions. The session
// management screen is the only consumer; an expired token is ridden out
// with one coordinated refresh before giving up.
func (e *Engine) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	if e == nil || e.gateway == nil {
		return nil, ErrEngineNotReady
	}
	snap := e.Snapshot()
	if !snap.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	sessions, err := e.gateway.Sessions(ctx, snap.AccessToken)
	if errors.Is(err, ErrSessionExpired) {
		access, rerr := e.refreshAccess(ctx)
		if rerr != nil {
			return nil, rerr
		}
		sessions, err = e.gateway.Sessions(ctx, access)
	}
	return sessions, err
}

// RevokeSession terminates one backend session by id. Revoking the current
// session is legal; the backend will reject the next refresh and the local
// session ends through the session-expired path.
func (e *Engine) RevokeSession(ctx context.Context, sessionID string) error {
	if e == nil || e.gateway == nil {
		return ErrEngineNotReady
	}
	snap := e.Snapshot()
	if !snap.Authenticated() {
		return ErrNotAuthenticated
	}

	err := e.gateway.RevokeSession(ctx, snap.AccessToken, sessionID)
	if errors.Is(err, ErrSessionExpired) {
		access, rerr := e.refreshAccess(ctx)
		if rerr != nil {
			return rerr
		}
		err = e.gateway.RevokeSession(ctx, access, sessionID)
	}
	if err == nil {
		e.metricInc(MetricSessionRevoked)
		var userID, role string
		if snap.User != nil {
			userID, role = snap.User.ID, snap.User.Role
		}
		e.emitAudit(ctx, auditEventSessionRevoked, true, userID, role, nil, func() map[string]string {
			return map[string]string{"session_id": sessionID}
		})
	}
	return err
}
