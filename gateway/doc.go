// Package gateway is the typed HTTP boundary to the backend authentication
// service. It is pure request/response: no state, no retries, no token
// storage.
//
// Every failure is classified into exactly one taxonomy error before it
// leaves this package ([ErrInvalidCredentials], [ErrAccountLocked],
// [ErrAccountInactive], [ErrInvalidTwoFactorCode], [ErrNetworkUnavailable],
// [ErrSessionExpired], [*ValidationError], [ErrUnexpectedResponse]). Raw
// response bodies never escape to callers.
//
// # What this package must NOT do
//
//   - Hold tokens or session state between calls.
//   - Decide refresh, redirect, or logout policy.
//   - Import consoleauth, routeguard, or permission.
package gateway
