package gateway

import (
	"encoding/json"
	"net/http"
)

// classify maps a non-2xx response to exactly one taxonomy error. The
// structured error code wins over the raw status when both are present;
// unauthorized401 is the caller's meaning for a bare 401 (invalid
// credentials on login paths, expired session on token-bearing paths).
func classify(status int, body []byte, unauthorized401 error) error {
	var envelope apiError
	_ = json.Unmarshal(body, &envelope)

	switch envelope.Error.Code {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "account_locked":
		return ErrAccountLocked
	case "account_inactive", "account_disabled":
		return ErrAccountInactive
	case "invalid_2fa_code", "expired_2fa_code", "challenge_expired", "challenge_consumed":
		return ErrInvalidTwoFactorCode
	case "session_expired", "token_expired", "token_invalid":
		return ErrSessionExpired
	}

	switch status {
	case http.StatusUnauthorized:
		return unauthorized401
	case http.StatusLocked:
		return ErrAccountLocked
	case http.StatusForbidden:
		return ErrAccountInactive
	case http.StatusUnprocessableEntity:
		return validationError(envelope)
	}
	return ErrUnexpectedResponse
}

func validationError(envelope apiError) error {
	verr := &ValidationError{}
	for field, message := range envelope.Error.Fields {
		verr.Violations = append(verr.Violations, FieldViolation{Field: field, Message: message})
	}
	if len(verr.Violations) == 0 && envelope.Error.Message != "" {
		verr.Violations = append(verr.Violations, FieldViolation{Field: "request", Message: envelope.Error.Message})
	}
	return verr
}
