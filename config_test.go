package goCredit

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default plus costs is valid",
			mutate: func(c *Config) { c.Costs = map[string]int64{"embed": 1} },
		},
		{
			name:    "zero token ttl",
			mutate:  func(c *Config) { c.Token.TTL = 0 },
			wantErr: "Token TTL",
		},
		{
			name:    "no rate tiers",
			mutate:  func(c *Config) { c.RateLimit.Tiers = nil },
			wantErr: "at least one tier",
		},
		{
			name: "empty tier name",
			mutate: func(c *Config) {
				c.RateLimit.Tiers[""] = RateTier{MaxRequests: 1, Window: time.Minute}
			},
			wantErr: "tier name",
		},
		{
			name: "non-positive tier budget",
			mutate: func(c *Config) {
				c.RateLimit.Tiers["bad"] = RateTier{MaxRequests: 0, Window: time.Minute}
			},
			wantErr: "MaxRequests",
		},
		{
			name: "non-positive tier window",
			mutate: func(c *Config) {
				c.RateLimit.Tiers["bad"] = RateTier{MaxRequests: 1, Window: 0}
			},
			wantErr: "Window",
		},
		{
			name:    "empty cost name",
			mutate:  func(c *Config) { c.Costs = map[string]int64{"": 1} },
			wantErr: "operation name",
		},
		{
			name:    "non-positive cost",
			mutate:  func(c *Config) { c.Costs = map[string]int64{"embed": 0} },
			wantErr: "must be positive",
		},
		{
			name: "jwt zero access ttl",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.AccessTTL = 0
			},
			wantErr: "AccessTTL",
		},
		{
			name: "jwt bad signing method",
			mutate: func(c *Config) {
				c.JWT.Enabled = true
				c.JWT.SigningMethod = "rs256"
			},
			wantErr: "SigningMethod",
		},
		{
			name:    "negative history limit",
			mutate:  func(c *Config) { c.Ledger.HistoryLimit = -1 },
			wantErr: "HistoryLimit",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultConfigTiers(t *testing.T) {
	cfg := DefaultConfig()

	for _, tier := range []string{"auth", "api", "ai"} {
		if _, ok := cfg.RateLimit.Tiers[tier]; !ok {
			t.Fatalf("expected default tier %q", tier)
		}
	}
	if cfg.Token.TTL != 30*24*time.Hour {
		t.Fatalf("unexpected default refresh TTL: %v", cfg.Token.TTL)
	}
	if cfg.JWT.SigningMethod != "ed25519" {
		t.Fatalf("unexpected default signing method: %q", cfg.JWT.SigningMethod)
	}
}
