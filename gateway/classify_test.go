package gateway

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassifyStructuredCodeWins(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"invalid credentials", 401, `{"error":{"code":"invalid_credentials"}}`, ErrInvalidCredentials},
		{"locked by code on 401", 401, `{"error":{"code":"account_locked"}}`, ErrAccountLocked},
		{"inactive", 403, `{"error":{"code":"account_inactive"}}`, ErrAccountInactive},
		{"disabled alias", 403, `{"error":{"code":"account_disabled"}}`, ErrAccountInactive},
		{"wrong 2fa code", 401, `{"error":{"code":"invalid_2fa_code"}}`, ErrInvalidTwoFactorCode},
		{"expired 2fa code", 401, `{"error":{"code":"expired_2fa_code"}}`, ErrInvalidTwoFactorCode},
		{"challenge expired", 401, `{"error":{"code":"challenge_expired"}}`, ErrInvalidTwoFactorCode},
		{"challenge consumed", 401, `{"error":{"code":"challenge_consumed"}}`, ErrInvalidTwoFactorCode},
		{"session expired", 401, `{"error":{"code":"session_expired"}}`, ErrSessionExpired},
		{"token expired", 401, `{"error":{"code":"token_expired"}}`, ErrSessionExpired},
		{"token invalid", 401, `{"error":{"code":"token_invalid"}}`, ErrSessionExpired},
		// The code wins even when the raw status says something else.
		{"code overrides status", 400, `{"error":{"code":"account_locked"}}`, ErrAccountLocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.status, []byte(tc.body), ErrInvalidCredentials)
			if !errors.Is(got, tc.want) {
				t.Fatalf("classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyStatusFallback(t *testing.T) {
	if got := classify(http.StatusUnauthorized, nil, ErrInvalidCredentials); !errors.Is(got, ErrInvalidCredentials) {
		t.Fatalf("expected the caller's 401 meaning on login paths, got %v", got)
	}
	if got := classify(http.StatusUnauthorized, nil, ErrSessionExpired); !errors.Is(got, ErrSessionExpired) {
		t.Fatalf("expected the caller's 401 meaning on token paths, got %v", got)
	}
	if got := classify(http.StatusLocked, []byte("plain text"), ErrInvalidCredentials); !errors.Is(got, ErrAccountLocked) {
		t.Fatalf("expected 423 to map to locked, got %v", got)
	}
	if got := classify(http.StatusForbidden, nil, ErrInvalidCredentials); !errors.Is(got, ErrAccountInactive) {
		t.Fatalf("expected 403 to map to inactive, got %v", got)
	}
	if got := classify(http.StatusInternalServerError, []byte("<html>stack trace</html>"), ErrInvalidCredentials); !errors.Is(got, ErrUnexpectedResponse) {
		t.Fatalf("expected unmapped statuses to collapse, got %v", got)
	}
}

func TestClassifyValidationAggregates(t *testing.T) {
	body := `{"error":{"code":"validation_failed","message":"invalid request","fields":{"email":"must be a valid address","password":"too short"}}}`

	err := classify(http.StatusUnprocessableEntity, []byte(body), ErrInvalidCredentials)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected two violations, got %+v", verr.Violations)
	}
	// Message ordering is stable by field name.
	if verr.Error() != "email: must be a valid address; password: too short" {
		t.Fatalf("unexpected aggregate message: %q", verr.Error())
	}
}

func TestClassifyValidationWithoutFields(t *testing.T) {
	body := `{"error":{"code":"validation_failed","message":"reset token expired"}}`

	err := classify(http.StatusUnprocessableEntity, []byte(body), ErrInvalidCredentials)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}
	if verr.Error() != "request: reset token expired" {
		t.Fatalf("unexpected message: %q", verr.Error())
	}
}

func TestValidationErrorEmpty(t *testing.T) {
	verr := &ValidationError{}
	if verr.Error() != "validation failed" {
		t.Fatalf("unexpected empty-violation message: %q", verr.Error())
	}
}
