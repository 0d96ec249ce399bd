// Package metrics provides lock-free counters and a latency histogram for
// consoleauth observability.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically via [sync/atomic.AddUint64]. The latency histogram uses 8 fixed
// buckets (≤5ms … +Inf). Both are allocation-free on the write path.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export to an
// external metrics system is the embedding application's concern and reads
// [Snapshot] values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import consoleauth or any sibling package.
//   - Expose global metric registries.
package metrics
