package internaldefs

import (
	goCredit "github.com/MrEthical07/goCredit"
)

// CounterDef defines a public type used by goCredit APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goCredit.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goCredit APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goCredit.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the credit gate engine.
var CounterDefs = []CounterDef{
	{ID: goCredit.MetricDebitSuccess, Name: "gocredit_debit_success_total", Help: "Successful debit operations."},
	{ID: goCredit.MetricDebitInsufficient, Name: "gocredit_debit_insufficient_total", Help: "Debits rejected for insufficient credits."},
	{ID: goCredit.MetricDebitRejected, Name: "gocredit_debit_rejected_total", Help: "Debits rejected for validation or account state."},
	{ID: goCredit.MetricCreditApplied, Name: "gocredit_credit_applied_total", Help: "Applied credit grants."},
	{ID: goCredit.MetricAccountCreated, Name: "gocredit_account_created_total", Help: "Created ledger accounts."},
	{ID: goCredit.MetricAccountDeactivated, Name: "gocredit_account_deactivated_total", Help: "Deactivated ledger accounts."},
	{ID: goCredit.MetricTokenIssued, Name: "gocredit_token_issued_total", Help: "Issued refresh tokens."},
	{ID: goCredit.MetricTokenVerified, Name: "gocredit_token_verified_total", Help: "Successful refresh token verifications."},
	{ID: goCredit.MetricTokenInvalid, Name: "gocredit_token_invalid_total", Help: "Refresh token presentations rejected as invalid."},
	{ID: goCredit.MetricTokenRevoked, Name: "gocredit_token_revoked_total", Help: "Refresh token revocations performed."},
	{ID: goCredit.MetricTokenRevokeRepeat, Name: "gocredit_token_revoke_repeat_total", Help: "Revocations of already-revoked refresh tokens."},
	{ID: goCredit.MetricTokenSwept, Name: "gocredit_token_swept_total", Help: "Expired or revoked token records removed by sweep."},
	{ID: goCredit.MetricRenewSuccess, Name: "gocredit_renew_success_total", Help: "Successful access renewals."},
	{ID: goCredit.MetricRenewFailure, Name: "gocredit_renew_failure_total", Help: "Failed access renewals."},
	{ID: goCredit.MetricRateAllowed, Name: "gocredit_rate_allowed_total", Help: "Rate-limit checks that admitted requests."},
	{ID: goCredit.MetricRateDenied, Name: "gocredit_rate_denied_total", Help: "Rate-limit checks that denied requests."},
	{ID: goCredit.MetricStorageUnavailable, Name: "gocredit_storage_unavailable_total", Help: "Operations failed due to storage unavailability."},
}

// HistogramDefs is an exported constant or variable used by the credit gate engine.
var HistogramDefs = []HistogramDef{
	{ID: goCredit.MetricDebitLatency, Name: "gocredit_debit_latency_seconds", Help: "Debit latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the credit gate engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the credit gate engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
