package goCredit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowWithinTierBudget(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.Tiers = map[string]RateTier{
		"api": {MaxRequests: 3, Window: time.Minute},
	}

	engine, _, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := engine.Allow(ctx, "alice", "api")
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if decision.Remaining != 2-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 2-i, decision.Remaining)
		}
	}

	decision, err := engine.Allow(ctx, "alice", "api")
	if err != nil {
		t.Fatalf("fourth Allow failed: %v", err)
	}
	if decision.Allowed {
		t.Fatal("fourth request should be denied")
	}
	if decision.RetryAfterSeconds < 1 || decision.RetryAfterSeconds > 60 {
		t.Fatalf("retry-after out of range: %d", decision.RetryAfterSeconds)
	}

	snapshot := engine.MetricsSnapshot()
	if snapshot.Counters[MetricRateAllowed] != 3 || snapshot.Counters[MetricRateDenied] != 1 {
		t.Fatalf("unexpected rate metrics: allowed %d denied %d",
			snapshot.Counters[MetricRateAllowed], snapshot.Counters[MetricRateDenied])
	}
}

func TestAllowUnknownTier(t *testing.T) {
	engine, _, done := newGateEngine(t, gateTestConfig())
	defer done()

	if _, err := engine.Allow(context.Background(), "alice", "platinum"); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("expected ErrUnknownTier, got %v", err)
	}
}

func TestAllowTiersCountIndependently(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.Tiers = map[string]RateTier{
		"auth": {MaxRequests: 1, Window: time.Minute},
		"ai":   {MaxRequests: 1, Window: time.Minute},
	}

	engine, _, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	if d, err := engine.Allow(ctx, "alice", "ai"); err != nil || !d.Allowed {
		t.Fatalf("ai request should pass: %v %+v", err, d)
	}
	if d, err := engine.Allow(ctx, "alice", "ai"); err != nil || d.Allowed {
		t.Fatalf("second ai request should be denied: %v %+v", err, d)
	}

	// Exhausting the AI tier must not block authentication traffic.
	if d, err := engine.Allow(ctx, "alice", "auth"); err != nil || !d.Allowed {
		t.Fatalf("auth request should pass: %v %+v", err, d)
	}
}

func TestAllowPrincipalsCountIndependently(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.Tiers = map[string]RateTier{
		"api": {MaxRequests: 1, Window: time.Minute},
	}

	engine, _, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	if d, err := engine.Allow(ctx, "alice", "api"); err != nil || !d.Allowed {
		t.Fatalf("alice should pass: %v %+v", err, d)
	}
	if d, err := engine.Allow(ctx, "bob", "api"); err != nil || !d.Allowed {
		t.Fatalf("bob should pass: %v %+v", err, d)
	}
}

func TestAllowWindowResets(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.Tiers = map[string]RateTier{
		"api": {MaxRequests: 1, Window: time.Minute},
	}

	engine, mr, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	if d, err := engine.Allow(ctx, "alice", "api"); err != nil || !d.Allowed {
		t.Fatalf("first request should pass: %v %+v", err, d)
	}
	if d, err := engine.Allow(ctx, "alice", "api"); err != nil || d.Allowed {
		t.Fatalf("second request should be denied: %v %+v", err, d)
	}

	mr.FastForward(61 * time.Second)

	if d, err := engine.Allow(ctx, "alice", "api"); err != nil || !d.Allowed {
		t.Fatalf("request after window reset should pass: %v %+v", err, d)
	}
}

func TestCheckRate(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.Tiers = map[string]RateTier{
		"api": {MaxRequests: 1, Window: time.Minute},
	}

	engine, _, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	if err := engine.CheckRate(ctx, "alice", "api"); err != nil {
		t.Fatalf("first CheckRate failed: %v", err)
	}

	err := engine.CheckRate(ctx, "alice", "api")
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if limited.RetryAfterSeconds < 1 {
		t.Fatalf("expected positive retry-after, got %d", limited.RetryAfterSeconds)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected error to unwrap to ErrRateLimited")
	}
}

func TestInMemoryLimiterEngine(t *testing.T) {
	cfg := gateTestConfig()
	cfg.RateLimit.InMemory = true
	cfg.RateLimit.Tiers = map[string]RateTier{
		"api": {MaxRequests: 2, Window: time.Minute},
	}

	engine, _, done := newGateEngine(t, cfg)
	defer done()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d, err := engine.Allow(ctx, "alice", "api"); err != nil || !d.Allowed {
			t.Fatalf("request %d should pass: %v %+v", i, err, d)
		}
	}
	if d, err := engine.Allow(ctx, "alice", "api"); err != nil || d.Allowed {
		t.Fatalf("third request should be denied: %v %+v", err, d)
	}
}

func TestSweepRateCountersRedisNoOp(t *testing.T) {
	engine, _, done := newGateEngine(t, gateTestConfig())
	defer done()

	removed, err := engine.SweepRateCounters(context.Background())
	if err != nil {
		t.Fatalf("SweepRateCounters failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("redis limiter sweeps via TTL; expected 0, got %d", removed)
	}
}
