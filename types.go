package goCredit

import (
	"time"
)

// TxnType represents the kind of one ledger mutation.
type TxnType string

const (
	// TxnDebit is an exported constant or variable used by the credit gate engine.
	TxnDebit TxnType = "debit"
	// TxnCredit is an exported constant or variable used by the credit gate engine.
	TxnCredit TxnType = "credit"
)

// Transaction is one immutable row of the append-only ledger history.
// BalanceAfter = BalanceBefore ± Amount, and both values come from the
// atomic storage operation that applied the mutation.
type Transaction struct {
	ID            string
	AccountID     string
	Type          TxnType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	ReferenceID   string
	CreatedAt     time.Time
}

// Account is the durable balance record for one principal. Balance is
// never negative; LifetimeEarned is informational and monotonic.
type Account struct {
	AccountID      string
	Balance        int64
	LifetimeEarned int64
	Active         bool
	CreatedAt      time.Time
}

// Decision is the outcome of one [Engine.Allow] call.
type Decision struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// RenewResult is returned by [Engine.RenewAccess]. It carries the verified
// account and, when the JWT facility is enabled, a fresh short-lived
// access token.
type RenewResult struct {
	AccountID   string
	TokenID     string
	AccessToken string
}

// SecurityReport is a read-only snapshot of the engine’s posture,
// returned by [Engine.SecurityReport].
type SecurityReport struct {
	RefreshTTL        time.Duration
	AccessTTL         time.Duration
	SigningAlgorithm  string
	RenewalEnabled    bool
	SharedRateWindows bool
	RateTiers         int
	AuditActive       bool
	MetricsActive     bool
}
