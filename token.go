package consoleauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenExpiry reads the exp claim without verifying the signature.
// Token validation is the backend's job; the client only needs the expiry
// to schedule refreshes ahead of a guaranteed 401. Opaque (non-JWT) tokens
// report no expiry and fall back to reactive refresh.
func accessTokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenNeedsRefresh reports whether the access token expires within the
// proactive window.
func tokenNeedsRefresh(token string, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	expiry, ok := accessTokenExpiry(token)
	if !ok {
		return false
	}
	return time.Until(expiry) <= window
}
