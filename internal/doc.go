// Package internal contains helper utilities that are intentionally private to goCredit,
// including secure random generation and refresh token encoding.
//
// # Sub-packages
//
//   - ledger — Redis-backed atomic credit ledger (scripted debit/credit)
//   - token — refresh token records, revocation, and sweep
//   - rate — fixed-window rate limit primitives (Redis and in-memory)
//
// # What this package must NOT do
//
//   - Export types that appear in the public goCredit API.
//   - Be imported by any package outside the goCredit module.
package internal
