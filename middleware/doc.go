// Package middleware exposes HTTP middleware adapters for rate-limit and
// credit-debit enforcement built on top of goCredit.Engine.
//
// # Guards
//
//   - [Guard] — bearer access token + rate check + metered debit.
//   - [RequireRate] — fixed-window rate limiting by request key, no debit.
//   - [RequireCredits] — metered debit for an authenticated account, no rate check.
//
// Each guard translates the engine's decision into an HTTP status and injects
// the gate result into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// metering logic itself — all decisions are delegated to the engine.
//
// # What this package must NOT do
//
//   - Parse access tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Retry or refund debits; a handler that fails after its debit keeps the charge.
package middleware
