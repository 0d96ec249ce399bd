// Package consoleauth is the client-side authentication and authorization
// core of the Hostwire business console: the multi-step login/2FA state
// machine, the persisted session lifecycle, and the role gate that decides
// which routed screens render.
//
// The package is designed for a single client process with concurrent
// in-flight requests: Engine methods are safe to call from multiple
// goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// consoleauth is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (LoginOutcome, SessionInfo, etc.). The REST
// boundary lives in gateway/, session state in session/, static role tables
// in permission/, and render-vs-redirect decisions in routeguard/. Audit
// dispatch and metrics live under internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Issue, sign, or validate tokens; the backend owns them. Local JWT
//     inspection is limited to unverified claim reads for expiry scheduling.
//   - Hash or persist passwords. A password is held only transiently while a
//     mandatory 2FA enrollment is outstanding, then zeroed.
//   - Enforce attempt limits or lockouts; the backend is the single source
//     of truth for both.
//
// # Concurrency contract
//
// The session snapshot is replaced atomically as a whole tuple; readers
// never observe partial state. At most one token refresh is in flight at any
// time: concurrent triggers coalesce onto the single outstanding call and
// share its result, and a failed refresh forces exactly one local logout.
package consoleauth
