package consoleauth

import (
	"errors"

	"github.com/hostwire/consoleauth/gateway"
)

// The failure taxonomy. Gateway-classified kinds are re-exported here so
// callers depend on one package for all error identity checks.
var (
	// ErrInvalidCredentials means the email/password pair was rejected.
	ErrInvalidCredentials = gateway.ErrInvalidCredentials
	// ErrAccountLocked means the backend has locked the account.
	ErrAccountLocked = gateway.ErrAccountLocked
	// ErrAccountInactive means the account has been disabled.
	ErrAccountInactive = gateway.ErrAccountInactive
	// ErrInvalidTwoFactorCode means the one-time code was wrong or expired.
	ErrInvalidTwoFactorCode = gateway.ErrInvalidTwoFactorCode
	// ErrNetworkUnavailable wraps transport failures and timeouts.
	ErrNetworkUnavailable = gateway.ErrNetworkUnavailable
	// ErrSessionExpired means the backend no longer honors this session.
	ErrSessionExpired = gateway.ErrSessionExpired
	// ErrUnexpectedResponse is the fallback for unmapped server errors.
	ErrUnexpectedResponse = gateway.ErrUnexpectedResponse

	// ErrEngineNotReady is returned when an Engine method runs before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNoPendingChallenge is returned by CompleteTwoFactor outside the
	// TwoFactorChallenge phase.
	ErrNoPendingChallenge = errors.New("no pending two-factor challenge")
	// ErrNoPendingEnrollment is returned by VerifyTwoFactorEnrollment
	// outside the TwoFactorEnrollmentRequired phase.
	ErrNoPendingEnrollment = errors.New("no pending two-factor enrollment")
	// ErrAttemptSuperseded marks a late response against a login attempt the
	// user has since cancelled or restarted. Callers discard the result.
	ErrAttemptSuperseded = errors.New("login attempt superseded")
	// ErrInvalidTransition marks a login operation that is not legal in the
	// current phase.
	ErrInvalidTransition = errors.New("invalid login state transition")
	// ErrNotAuthenticated is returned by session-scoped operations when no
	// validated session exists.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError aggregates the field errors of a 422 response.
type ValidationError = gateway.ValidationError

// FieldViolation is one rejected field inside a [ValidationError].
type FieldViolation = gateway.FieldViolation

// UserMessage maps a taxonomy error to the user-facing string the login UI
// surfaces. Every kind gets a distinct message; anything unmapped collapses
// to a generic retry prompt so raw server payloads never reach the screen.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "Please correct the following: " + verr.Error()
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect email or password."
	case errors.Is(err, ErrAccountLocked):
		return "This account is temporarily locked. Try again later or reset your password."
	case errors.Is(err, ErrAccountInactive):
		return "This account has been disabled. Contact support for assistance."
	case errors.Is(err, ErrInvalidTwoFactorCode):
		return "That verification code is invalid or has expired."
	case errors.Is(err, ErrNetworkUnavailable):
		return "We couldn't reach the server. Check your connection and try again."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
