package consoleauth

import (
	"errors"
	"io"
	"net/http"

	"github.com/hostwire/consoleauth/session"
)

// HTTPClient returns an http.Client whose transport attaches the current
// access token to every request and transparently rides out token expiry:
// a 401 triggers one coordinated refresh and one replay of the original
// request with the new token. Page modules use this client for all
// console API calls so N concurrent expiries still produce exactly one
// refresh round-trip.
func (e *Engine) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &authTransport{engine: e, base: http.DefaultTransport},
	}
}

// authTransport is the bearer-injecting RoundTripper behind
// [Engine.HTTPClient].
type authTransport struct {
	engine *Engine
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	snap := t.engine.Snapshot()
	if snap.State != session.StateAuthenticated {
		return nil, ErrNotAuthenticated
	}

	access := snap.AccessToken
	if tokenNeedsRefresh(access, t.engine.config.Refresh.ProactiveWindow) {
		refreshed, err := t.engine.refreshAccess(req.Context())
		if err == nil {
			access = refreshed
		}
		// A failed proactive refresh is not fatal yet; the request may
		// still succeed, and a 401 takes the reactive path below.
	}

	resp, err := t.roundTripWithToken(req, access, req.Body != nil && req.GetBody == nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// The body cannot be rewound; surface the 401 untouched.
		return resp, nil
	}

	drain(resp)
	refreshed, err := t.engine.refreshAccess(req.Context())
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	return t.roundTripWithToken(req, refreshed, false)
}

func (t *authTransport) roundTripWithToken(req *http.Request, token string, bodyConsumable bool) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if !bodyConsumable && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(clone)
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
