// Package session owns the process-wide authenticated session snapshot and
// its persistence tiers.
//
// # Architecture boundaries
//
// The package exposes [Store], the tri-state [Snapshot], and the pluggable
// [Storage] backends that realize the volatile and durable persistence
// tiers. Readers always observe a complete tuple: user, access token, and
// refresh token are replaced together through [Store.SetAuth] and cleared
// together through [Store.ClearAuth]. There is no API for setting a token
// without a user or a user without tokens.
//
// # What this package must NOT do
//
//   - Perform HTTP calls. Revalidation of a hydrated session against the
//     backend is the engine's job; the store only reports what it found.
//   - Interpret roles or permissions.
//   - Keep plaintext passwords in any form.
package session
