// Package ledger implements the Redis-backed atomic credit ledger.
//
// # Design
//
// Every balance mutation runs as a Lua script so the check and the update
// are one storage operation. The debit script refuses to drive a balance
// negative and appends the history row in the same invocation, making the
// transaction list order identical to balance commit order.
//
// # Architecture boundaries
//
// This package owns ledger keys and row encoding. It does not know about
// tokens, rate limits, metrics, or the public API types.
package ledger
