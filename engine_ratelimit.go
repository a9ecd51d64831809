package goCredit

import (
	"context"

	"github.com/MrEthical07/goCredit/internal/rate"
)

// Allow applies the named tier’s fixed-window budget to the principal and
// returns the decision. Distinct tiers count independently, so exhausting
// the AI tier never blocks authentication traffic. A denied decision
// carries RetryAfterSeconds, the whole-second ceiling of the remaining
// window.
//
// Fixed windows admit bursts of up to ~2x the nominal rate across a
// window boundary; that trade-off is deliberate.
func (e *Engine) Allow(ctx context.Context, principalKey, tierName string) (Decision, error) {
	if e == nil || e.limiter == nil {
		return Decision{}, ErrEngineNotReady
	}

	tierCfg, ok := e.config.RateLimit.Tiers[tierName]
	if !ok {
		return Decision{}, ErrUnknownTier
	}

	// Tier name prefixes the counter key so tiers never share windows.
	decision, err := e.limiter.Allow(ctx, tierName+":"+principalKey, rate.Tier{
		MaxRequests: tierCfg.MaxRequests,
		Window:      tierCfg.Window,
	})
	if err != nil {
		return Decision{}, e.storageErr(err)
	}

	if decision.Allowed {
		e.metrics.Inc(MetricRateAllowed)
	} else {
		e.metrics.Inc(MetricRateDenied)
		e.emitAudit(ctx, AuditEvent{
			EventType:    "rate.denied",
			PrincipalKey: principalKey,
			Metadata:     map[string]string{"tier": tierName},
		})
	}

	return Decision{
		Allowed:           decision.Allowed,
		Remaining:         decision.Remaining,
		RetryAfterSeconds: decision.RetryAfter,
	}, nil
}

// CheckRate is a convenience wrapper over [Engine.Allow] that converts a
// denied decision into a [RateLimitedError].
func (e *Engine) CheckRate(ctx context.Context, principalKey, tierName string) error {
	decision, err := e.Allow(ctx, principalKey, tierName)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &RateLimitedError{RetryAfterSeconds: decision.RetryAfterSeconds}
	}
	return nil
}

// SweepRateCounters removes stale window counters and returns the count
// removed. The Redis-backed limiter evicts via TTL and always reports 0;
// the in-memory limiter relies on this running on a recurring schedule.
func (e *Engine) SweepRateCounters(ctx context.Context) (int, error) {
	if e == nil || e.limiter == nil {
		return 0, ErrEngineNotReady
	}

	removed, err := e.limiter.Sweep(ctx)
	if err != nil {
		return removed, e.storageErr(err)
	}
	return removed, nil
}
