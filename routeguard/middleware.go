package routeguard

import (
	"net/http"
	"net/url"

	"github.com/hostwire/consoleauth/permission"
	"github.com/hostwire/consoleauth/session"
)

// Authority is the slice of the auth engine the guards consume. The guards
// only ever read; they never mutate session state.
type Authority interface {
	Snapshot() session.Snapshot
	PermissionTable() *permission.Table
}

// ReturnToParam is the query parameter carrying the attempted path on login
// redirects.
const ReturnToParam = "next"

const pendingBody = `<!DOCTYPE html><html><head><meta http-equiv="refresh" content="1"></head><body>Loading…</body></html>`

// Guard wraps an http.Handler with an authorization check for the given
// requirement. Redirect targets come from paths; zero-value fields fall back
// to [DefaultPaths].
func Guard(authority Authority, req Requirement, paths Paths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := Authorize(authority.Snapshot(), authority.PermissionTable(), req, paths, r.URL.RequestURI())

			switch result.Decision {
			case DecisionAllow:
				next.ServeHTTP(w, r)
			case DecisionPending:
				// Hydration has not settled; answer a retryable placeholder
				// rather than a redirect that could be wrong a moment later.
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(pendingBody))
			case DecisionLoginRedirect:
				http.Redirect(w, r, loginTarget(result), http.StatusFound)
			default:
				http.Redirect(w, r, result.RedirectPath, http.StatusFound)
			}
		})
	}
}

func loginTarget(result Result) string {
	if result.ReturnTo == "" {
		return result.RedirectPath
	}
	return result.RedirectPath + "?" + ReturnToParam + "=" + url.QueryEscape(result.ReturnTo)
}
