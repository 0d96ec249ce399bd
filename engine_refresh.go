package consoleauth

import (
	"context"
	"errors"
	"sync"

	"github.com/hostwire/consoleauth/gateway"
	"github.com/hostwire/consoleauth/session"
)

type refreshResult struct {
	accessToken string
	err         error
}

// refreshCoordinator guarantees at most one refresh call in flight. The
// first trigger becomes the winner and performs the call; every concurrent
// trigger parks as a waiter and receives the winner's result. A failed
// refresh therefore clears the session exactly once, and no two callers can
// race to reset it independently.
type refreshCoordinator struct {
	mu       sync.Mutex
	inflight bool
	waiters  []chan refreshResult
}

// refreshAccess returns a currently valid access token, refreshing the
// session if needed. All concurrent callers observe the same outcome; when
// the backend rejects the refresh token every caller gets
// [ErrSessionExpired] and local state is already cleared.
func (e *Engine) refreshAccess(ctx context.Context) (string, error) {
	e.refresh.mu.Lock()
	if e.refresh.inflight {
		ch := make(chan refreshResult, 1)
		e.refresh.waiters = append(e.refresh.waiters, ch)
		e.refresh.mu.Unlock()
		e.metricInc(MetricRefreshDeduplicated)

		select {
		case result := <-ch:
			return result.accessToken, result.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	e.refresh.inflight = true
	e.refresh.mu.Unlock()

	result := e.doRefresh()

	e.refresh.mu.Lock()
	e.refresh.inflight = false
	waiters := e.refresh.waiters
	e.refresh.waiters = nil
	e.refresh.mu.Unlock()

	for _, ch := range waiters {
		ch <- result
	}
	return result.accessToken, result.err
}

// doRefresh performs the single network call. It runs on its own deadline,
// detached from whichever request happened to trigger it, so a cancelled
// winner cannot fail the waiters behind it.
func (e *Engine) doRefresh() refreshResult {
	snap := e.store.Snapshot()
	if snap.RefreshToken == "" {
		return refreshResult{err: ErrSessionExpired}
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.config.Refresh.Timeout)
	defer cancel()

	reply, err := e.gateway.Refresh(ctx, snap.RefreshToken)
	if err != nil {
		if errors.Is(err, gateway.ErrNetworkUnavailable) {
			// Not a verdict on the session; leave it intact for a later try.
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", err, nil)
			return refreshResult{err: err}
		}
		// The backend has invalidated this session. Force the local logout
		// here, inside the single flight, so it happens exactly once.
		_ = e.store.ClearAuth(ctx)
		e.machine.loggedOut()
		e.metricInc(MetricSessionExpired)
		e.emitAudit(ctx, auditEventSessionExpired, false, "", "", err, nil)
		return refreshResult{err: ErrSessionExpired}
	}

	user := reply.User
	if user == nil {
		user = snap.User
	}
	persist := snap.Tier == session.TierDurable
	if err := e.store.SetAuth(ctx, user, reply.AccessToken, reply.RefreshToken, persist); err != nil {
		return refreshResult{err: err}
	}
	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, user.Role, nil, nil)
	return refreshResult{accessToken: reply.AccessToken}
}
