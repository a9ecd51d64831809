package rate

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-process fixed-window limiter. Its counters
// live in a local map and are NOT shared across instances: two instances
// each admit up to MaxRequests, doubling the effective limit under
// horizontal scaling. Deployments with more than one process should use
// [RedisLimiter] instead.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	now      func() time.Time
}

// NewMemoryLimiter creates a [MemoryLimiter].
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// Allow applies fixed-window counting for the key. A counter is created
// lazily on the first request of a window and replaced once the window
// elapses.
func (l *MemoryLimiter) Allow(_ context.Context, principalKey string, tier Tier) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	counter, ok := l.counters[principalKey]
	if !ok || !now.Before(counter.resetAt) {
		l.counters[principalKey] = &windowCounter{
			count:   1,
			resetAt: now.Add(tier.Window),
		}
		return Decision{
			Allowed:   true,
			Remaining: tier.MaxRequests - 1,
		}, nil
	}

	counter.count++
	if counter.count <= tier.MaxRequests {
		return Decision{
			Allowed:   true,
			Remaining: tier.MaxRequests - counter.count,
		}, nil
	}

	return Decision{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: retryAfterSeconds(counter.resetAt.Sub(now)),
	}, nil
}

// Sweep drops counters whose window has elapsed, bounding the map to
// recently-active principals. Returns the number removed.
func (l *MemoryLimiter) Sweep(_ context.Context) (int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, counter := range l.counters {
		if !now.Before(counter.resetAt) {
			delete(l.counters, key)
			removed++
		}
	}

	return removed, nil
}
