package goCredit

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientCredits is an exported constant or variable used by the credit gate engine.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrTokenInvalid is an exported constant or variable used by the credit gate engine.
	ErrTokenInvalid = errors.New("invalid refresh token")
	// ErrRateLimited is an exported constant or variable used by the credit gate engine.
	ErrRateLimited = errors.New("rate limited")
	// ErrStorageUnavailable is an exported constant or variable used by the credit gate engine.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrAccountNotFound is an exported constant or variable used by the credit gate engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is an exported constant or variable used by the credit gate engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountDeactivated is an exported constant or variable used by the credit gate engine.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrInvalidAmount is an exported constant or variable used by the credit gate engine.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidReferenceID is an exported constant or variable used by the credit gate engine.
	ErrInvalidReferenceID = errors.New("invalid reference id")
	// ErrUnknownOperation is an exported constant or variable used by the credit gate engine.
	ErrUnknownOperation = errors.New("operation not in cost table")
	// ErrUnknownTier is an exported constant or variable used by the credit gate engine.
	ErrUnknownTier = errors.New("unknown rate limit tier")
	// ErrRenewalDisabled is an exported constant or variable used by the credit gate engine.
	ErrRenewalDisabled = errors.New("access token renewal disabled")
	// ErrEngineNotReady is an exported constant or variable used by the credit gate engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// InsufficientCreditsError reports a debit that was refused because the
// balance could not cover the requested amount. Required and Current come
// from the same atomic storage operation that refused the debit, so the
// caller can render a precise user-facing error. It unwraps to
// [ErrInsufficientCredits] for errors.Is checks.
type InsufficientCreditsError struct {
	Required int64
	Current  int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, current %d", e.Required, e.Current)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return ErrInsufficientCredits
}

// RateLimitedError reports a denied rate-limit decision along with how
// long the caller should wait before retrying. It unwraps to
// [ErrRateLimited] for errors.Is checks.
type RateLimitedError struct {
	RetryAfterSeconds int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry after %ds", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
