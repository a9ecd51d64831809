package goCredit

import "time"

// Warning is one non-fatal configuration finding from [Config.Lint].
type Warning struct {
	Code    string
	Message string
}

// Warnings is the ordered result of a lint pass.
type Warnings []Warning

// Codes returns just the warning codes, in lint order.
func (ws Warnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// Lint reports configuration choices that validate but weaken the gate in
// production. Unlike [Config.Validate] it never fails construction; callers
// decide whether to log, alert, or ignore.
func (c Config) Lint() Warnings {
	var ws Warnings

	add := func(code, message string) {
		ws = append(ws, Warning{Code: code, Message: message})
	}

	if c.RateLimit.InMemory {
		add("in_memory_rate_limiter",
			"in-memory rate counters are per-process; horizontally scaled deployments multiply the effective budget")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "no audit trail will be produced for debits, grants, or revocations")
	}
	if !c.Metrics.Enabled {
		add("metrics_disabled", "engine counters will read zero; exporters render nothing")
	}
	if len(c.Costs) == 0 {
		add("no_costs_configured", "DebitOperation will reject every operation name")
	}
	if c.Token.TTL > 90*24*time.Hour {
		add("refresh_ttl_long", "refresh tokens valid beyond 90 days stretch the revocation window")
	}
	if c.JWT.Enabled {
		if c.JWT.SigningMethod == "hs256" {
			add("hs256_signing", "symmetric signing shares the mint key with every verifier; prefer ed25519")
		}
		if c.JWT.AccessTTL > time.Hour {
			add("access_ttl_long", "access tokens outlive revocation for their full TTL; keep them short")
		}
		if c.JWT.Leeway > time.Minute {
			add("leeway_large", "clock-skew leeway above one minute extends effective token lifetime")
		}
	}
	if !c.Audit.DropIfFull && c.Audit.Enabled {
		add("audit_blocking", "a slow audit sink will back-pressure request handling")
	}

	return ws
}
