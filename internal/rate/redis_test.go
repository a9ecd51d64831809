package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*RedisLimiter, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := NewRedisLimiter(rdb, "rl")

	return limiter, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisLimiterDeniesFourthRequest(t *testing.T) {
	limiter, _, done := newTestLimiter(t)
	defer done()
	ctx := context.Background()

	tier := Tier{MaxRequests: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, "key-1", tier)
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if decision.Remaining != tier.MaxRequests-i-1 {
			t.Fatalf("expected remaining %d, got %d", tier.MaxRequests-i-1, decision.Remaining)
		}
	}

	decision, err := limiter.Allow(ctx, "key-1", tier)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected fourth request to be denied")
	}
	if decision.RetryAfter < 1 || decision.RetryAfter > 60 {
		t.Fatalf("expected retry-after within (0, 60], got %d", decision.RetryAfter)
	}
}

func TestRedisLimiterWindowReset(t *testing.T) {
	limiter, mr, done := newTestLimiter(t)
	defer done()
	ctx := context.Background()

	tier := Tier{MaxRequests: 1, Window: time.Minute}

	if decision, err := limiter.Allow(ctx, "key-1", tier); err != nil || !decision.Allowed {
		t.Fatalf("expected first request allowed, got %+v err %v", decision, err)
	}
	if decision, err := limiter.Allow(ctx, "key-1", tier); err != nil || decision.Allowed {
		t.Fatalf("expected second request denied, got %+v err %v", decision, err)
	}

	mr.FastForward(61 * time.Second)

	decision, err := limiter.Allow(ctx, "key-1", tier)
	if err != nil {
		t.Fatalf("Allow after window failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("expected fresh window to admit the request")
	}
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	limiter, _, done := newTestLimiter(t)
	defer done()
	ctx := context.Background()

	tier := Tier{MaxRequests: 1, Window: time.Minute}

	if decision, err := limiter.Allow(ctx, "key-1", tier); err != nil || !decision.Allowed {
		t.Fatalf("expected key-1 allowed, got %+v err %v", decision, err)
	}
	if decision, err := limiter.Allow(ctx, "key-2", tier); err != nil || !decision.Allowed {
		t.Fatalf("expected key-2 unaffected by key-1, got %+v err %v", decision, err)
	}
}

func TestRedisLimiterReArmsLostWindow(t *testing.T) {
	limiter, mr, done := newTestLimiter(t)
	defer done()
	ctx := context.Background()

	tier := Tier{MaxRequests: 1, Window: time.Minute}

	// Simulate a counter whose first-hit PExpire was lost: key exists with
	// no TTL and the budget already consumed.
	mr.Set("rl:key-1", "5")

	decision, err := limiter.Allow(ctx, "key-1", tier)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected over-budget request to be denied")
	}
	if decision.RetryAfter < 1 || decision.RetryAfter > 60 {
		t.Fatalf("expected re-armed retry-after within (0, 60], got %d", decision.RetryAfter)
	}
	if mr.TTL("rl:key-1") <= 0 {
		t.Fatal("expected the window TTL to be re-armed")
	}
}

func TestRedisLimiterSweepIsNoOp(t *testing.T) {
	limiter, _, done := newTestLimiter(t)
	defer done()

	removed, err := limiter.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
}
