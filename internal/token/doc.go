// Package token persists refresh token records in Redis.
//
// # Design
//
// Records use a compact binary encoding with the revoked-at stamp at a
// fixed byte offset, which lets the revoke script splice the stamp in
// place without a read-modify-write round trip. Records carry no Redis
// TTL; Sweep is the single authoritative deletion path so that removal
// counts are observable.
//
// # Architecture boundaries
//
// This package stores and retrieves records by public token ID. Secret
// hashing and constant-time comparison happen in the caller; raw secrets
// never reach this package.
package token
