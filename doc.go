// Package goCredit provides a paid-access gate for metered AI operations:
// a Redis-backed atomic credit ledger, opaque refresh-token session
// renewal, and tiered fixed-window rate limiting.
//
// The package is designed for concurrent, multi-instance server
// workloads: all shared mutable state lives in Redis and every balance
// mutation goes through an atomic conditional-update script, so no
// application-level lock exists anywhere on the request path. Engine
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// goCredit is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Transaction, Decision, MetricsSnapshot,
// etc.). All internal coordination — ledger scripts, token records, rate
// counters — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Execute, retry, or deduplicate the caller’s metered operation; the gate only
//     decides whether it may run.
//
// # Correctness contract
//
// Debit is check-and-decrement in one storage operation: for any set of
// concurrent debits against one account, exactly the maximal affordable
// subset succeeds and the balance never goes negative. A timed-out Debit
// is an unknown outcome and the caller must not run the metered
// operation.
package goCredit
