package goCredit

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goCredit/internal/ledger"
	"github.com/MrEthical07/goCredit/internal/rate"
	"github.com/MrEthical07/goCredit/internal/token"
	"github.com/MrEthical07/goCredit/jwt"
)

// Engine is the paid-access gate. It owns the credit ledger, the refresh
// token lifecycle, and the request rate limiter, and is safe for use from
// any number of goroutines. All shared state lives in Redis; the Engine
// holds no cross-request mutable state of its own, so any number of
// process instances may run against the same backend.
//
// Construct via [New] and [Builder.Build].
type Engine struct {
	config Config

	ledgerStore *ledger.Store
	tokenStore  *token.Store
	limiter     rate.Limiter
	jwtManager  *jwt.Manager

	audit   *auditDispatcher
	metrics *Metrics
}

// MetricsSnapshot returns a point-in-time deep copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// SecurityReport returns a read-only snapshot of the engine’s posture.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	return SecurityReport{
		RefreshTTL:        e.config.Token.TTL,
		AccessTTL:         e.config.JWT.AccessTTL,
		SigningAlgorithm:  e.config.JWT.SigningMethod,
		RenewalEnabled:    e.jwtManager != nil,
		SharedRateWindows: !e.config.RateLimit.InMemory,
		RateTiers:         len(e.config.RateLimit.Tiers),
		AuditActive:       e.audit != nil,
		MetricsActive:     e.metrics.Enabled(),
	}
}

// Ping verifies the storage backend is reachable.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.ledgerStore == nil {
		return 0, ErrEngineNotReady
	}
	latency, err := e.ledgerStore.Ping(ctx)
	if err != nil {
		return latency, e.storageErr(err)
	}
	return latency, nil
}

// Close flushes and stops the audit dispatcher. The Engine must not be
// used after Close returns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	e.audit.Emit(ctx, event)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// storageErr wraps an infrastructure fault behind the public sentinel so
// callers can retry without parsing backend details, and bumps the
// corresponding metric. The full cause stays in the wrapped message for
// internal logging only.
func (e *Engine) storageErr(err error) error {
	e.metrics.Inc(MetricStorageUnavailable)
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
