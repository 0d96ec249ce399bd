// Package audit implements async event dispatching for security-relevant
// client operations: logins, second-factor attempts, refreshes, logouts, and
// guard redirects.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured audit record with timestamp, type, user, role, path, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the Engine and the
// route guards.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import consoleauth or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
