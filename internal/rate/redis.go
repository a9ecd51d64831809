package rate

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in Redis so the budget is shared by every
// process instance. Counters expire with their window; Sweep is a no-op.
type RedisLimiter struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisLimiter creates a [RedisLimiter] backed by the given client.
func NewRedisLimiter(redisClient redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (l *RedisLimiter) key(principalKey string) string {
	return l.prefix + ":" + principalKey
}

// Allow increments the window counter for the key and compares it against
// the tier budget. The INCR is atomic across instances, so concurrent
// callers can never both land on the same pre-increment count.
func (l *RedisLimiter) Allow(ctx context.Context, principalKey string, tier Tier) (Decision, error) {
	key := l.key(principalKey)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.PExpire(ctx, key, tier.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count <= int64(tier.MaxRequests) {
		return Decision{
			Allowed:   true,
			Remaining: tier.MaxRequests - int(count),
		}, nil
	}

	pttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if pttl <= 0 {
		// The first-hit PExpire was lost (crash between INCR and PExpire).
		// Re-arm the window rather than locking the key out forever.
		if err := l.redis.PExpire(ctx, key, tier.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		pttl = tier.Window
	}

	return Decision{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: retryAfterSeconds(pttl),
	}, nil
}

// Sweep is a no-op for the Redis limiter; window TTLs evict counters
// natively. Always returns 0.
func (l *RedisLimiter) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}
