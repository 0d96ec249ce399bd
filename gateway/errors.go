package gateway

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials means the email/password pair was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked means the backend has locked the account after too
	// many failed attempts. The client never tracks attempts itself.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountInactive means the account exists but has been disabled.
	ErrAccountInactive = errors.New("account inactive")
	// ErrInvalidTwoFactorCode means the one-time code was wrong or expired.
	ErrInvalidTwoFactorCode = errors.New("invalid or expired two-factor code")
	// ErrNetworkUnavailable wraps transport-level failures and timeouts.
	ErrNetworkUnavailable = errors.New("authentication service unreachable")
	// ErrSessionExpired means the backend no longer honors the session's
	// tokens. The engine reacts by clearing local state exactly once.
	ErrSessionExpired = errors.New("session expired")
	// ErrUnexpectedResponse is the fallback for unmapped server errors.
	ErrUnexpectedResponse = errors.New("unexpected authentication service response")
)

// FieldViolation is one rejected field from a 422 response.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError aggregates the field errors of a 422 response into a
// single error value with one combined message.
type ValidationError struct {
	Violations []FieldViolation
}

// Error joins all field messages into one user-presentable string, ordered
// by field name for stable output.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	sorted := make([]FieldViolation, len(e.Violations))
	copy(sorted, e.Violations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })

	parts := make([]string, 0, len(sorted))
	for _, v := range sorted {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return strings.Join(parts, "; ")
}
