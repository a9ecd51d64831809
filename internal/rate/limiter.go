package rate

import (
	"context"
	"errors"
	"time"
)

// ErrRedisUnavailable is returned when the shared counter backend cannot
// be reached.
var ErrRedisUnavailable = errors.New("rate redis unavailable")

// Tier holds the budget for one class of endpoint (e.g. auth vs. general
// API vs. AI). Distinct tiers use distinct counter keys so exhausting one
// never blocks another.
type Tier struct {
	MaxRequests int
	Window      time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // whole seconds until the window resets; 0 when allowed
}

// Limiter is a fixed-window request counter. Fixed windows admit bursts of
// up to ~2x the nominal rate across a window boundary; that trade-off is
// deliberate and shared by both implementations.
type Limiter interface {
	Allow(ctx context.Context, principalKey string, tier Tier) (Decision, error)
	Sweep(ctx context.Context) (int, error)
}

func retryAfterSeconds(remaining time.Duration) int {
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
