package goCredit

import (
	"errors"
	"time"
)

// Config defines a public type used by goCredit APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Ledger    LedgerConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Audit     AuditConfig
	Metrics   MetricsConfig

	// Costs maps a metered operation name to its fixed credit cost. The
	// table is supplied by the caller and treated as opaque input.
	Costs map[string]int64
}

/*
====================================
LEDGER CONFIG
====================================
*/

// LedgerConfig defines a public type used by goCredit APIs.
//
// LedgerConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LedgerConfig struct {
	RedisPrefix  string
	HistoryLimit int64
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by goCredit APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	RedisPrefix string
	TTL         time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateTier holds the request budget for one endpoint class.
type RateTier struct {
	MaxRequests int
	Window      time.Duration
}

// RateLimitConfig defines a public type used by goCredit APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	RedisPrefix string

	// InMemory selects the single-process counter map instead of shared
	// Redis counters. Under horizontal scaling each instance then admits
	// up to MaxRequests independently, multiplying the effective limit.
	InMemory bool

	Tiers map[string]RateTier
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goCredit APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	Enabled       bool
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goCredit APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goCredit APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: Redis-backed rate
// counters, 30-day refresh tokens, and conservative tier budgets. Callers
// supply Costs and JWT keys before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Ledger: LedgerConfig{
			RedisPrefix:  "lg",
			HistoryLimit: 50,
		},
		Token: TokenConfig{
			RedisPrefix: "rt",
			TTL:         30 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix: "rl",
			Tiers: map[string]RateTier{
				"auth": {MaxRequests: 10, Window: time.Minute},
				"api":  {MaxRequests: 100, Window: time.Minute},
				"ai":   {MaxRequests: 20, Window: time.Minute},
			},
		},
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "ed25519",
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be positive")
	}
	if len(c.RateLimit.Tiers) == 0 {
		return errors.New("RateLimit requires at least one tier")
	}
	for name, tier := range c.RateLimit.Tiers {
		if name == "" {
			return errors.New("RateLimit tier name must not be empty")
		}
		if tier.MaxRequests <= 0 {
			return errors.New("RateLimit tier MaxRequests must be positive")
		}
		if tier.Window <= 0 {
			return errors.New("RateLimit tier Window must be positive")
		}
	}
	for op, cost := range c.Costs {
		if op == "" {
			return errors.New("Costs operation name must not be empty")
		}
		if cost <= 0 {
			return errors.New("Costs entries must be positive")
		}
	}
	if c.JWT.Enabled {
		if c.JWT.AccessTTL <= 0 {
			return errors.New("JWT AccessTTL must be positive")
		}
		if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
			return errors.New("JWT SigningMethod must be ed25519 or hs256")
		}
	}
	if c.Ledger.HistoryLimit < 0 {
		return errors.New("Ledger HistoryLimit must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)

	if cfg.RateLimit.Tiers != nil {
		tiers := make(map[string]RateTier, len(cfg.RateLimit.Tiers))
		for name, tier := range cfg.RateLimit.Tiers {
			tiers[name] = tier
		}
		out.RateLimit.Tiers = tiers
	}

	if cfg.Costs != nil {
		costs := make(map[string]int64, len(cfg.Costs))
		for op, cost := range cfg.Costs {
			costs[op] = cost
		}
		out.Costs = costs
	}

	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
