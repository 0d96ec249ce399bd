package routeguard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hostwire/consoleauth/session"
)

const identityContextKey = "consoleauth.identity"

// IdentityFromGin returns the authenticated identity installed by
// [GinGuard], if any.
func IdentityFromGin(c *gin.Context) (*session.Identity, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	identity, ok := value.(*session.Identity)
	return identity, ok
}

// GinGuard is the gin adapter for [Authorize]. Allowed requests continue
// with the identity stored on the context; everything else is redirected or
// answered with the pending placeholder.
func GinGuard(authority Authority, req Requirement, paths Paths) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := authority.Snapshot()
		result := Authorize(snap, authority.PermissionTable(), req, paths, c.Request.URL.RequestURI())

		switch result.Decision {
		case DecisionAllow:
			c.Set(identityContextKey, snap.User)
			c.Next()
		case DecisionPending:
			c.Header("Retry-After", "1")
			c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8", []byte(pendingBody))
			c.Abort()
		case DecisionLoginRedirect:
			c.Redirect(http.StatusFound, loginTarget(result))
			c.Abort()
		default:
			c.Redirect(http.StatusFound, result.RedirectPath)
			c.Abort()
		}
	}
}
