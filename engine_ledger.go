package goCredit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goCredit/internal/ledger"
	"github.com/google/uuid"
)

// CreateAccount initializes the ledger account for a newly registered
// principal with the given starting balance.
//
// CreateAccount may return an error when input validation, dependency calls, or security checks fail.
// CreateAccount does not mutate shared global state beyond its own account record and can be used concurrently.
func (e *Engine) CreateAccount(ctx context.Context, accountID string, initialBalance int64) error {
	if e == nil || e.ledgerStore == nil {
		return ErrEngineNotReady
	}

	err := e.ledgerStore.CreateAccount(ctx, accountID, initialBalance)
	if err != nil {
		mapped := e.mapLedgerErr(err)
		e.emitAudit(ctx, AuditEvent{
			EventType: "ledger.account.create",
			AccountID: accountID,
			Amount:    initialBalance,
			Error:     errString(mapped),
		})
		return mapped
	}

	e.metrics.Inc(MetricAccountCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: "ledger.account.create",
		AccountID: accountID,
		Amount:    initialBalance,
		Success:   true,
	})

	return nil
}

// DeactivateAccount marks the account inactive. The balance and history
// are retained; accounts are never hard-deleted.
//
// DeactivateAccount may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) DeactivateAccount(ctx context.Context, accountID string) error {
	if e == nil || e.ledgerStore == nil {
		return ErrEngineNotReady
	}

	if err := e.ledgerStore.DeactivateAccount(ctx, accountID); err != nil {
		return e.mapLedgerErr(err)
	}

	e.metrics.Inc(MetricAccountDeactivated)
	e.emitAudit(ctx, AuditEvent{
		EventType: "ledger.account.deactivate",
		AccountID: accountID,
		Success:   true,
	})

	return nil
}

// Balance returns the current credit balance for the account.
func (e *Engine) Balance(ctx context.Context, accountID string) (int64, error) {
	if e == nil || e.ledgerStore == nil {
		return 0, ErrEngineNotReady
	}

	balance, err := e.ledgerStore.Balance(ctx, accountID)
	if err != nil {
		return 0, e.mapLedgerErr(err)
	}
	return balance, nil
}

// Account returns the full ledger record for the account.
func (e *Engine) Account(ctx context.Context, accountID string) (*Account, error) {
	if e == nil || e.ledgerStore == nil {
		return nil, ErrEngineNotReady
	}

	acct, err := e.ledgerStore.Account(ctx, accountID)
	if err != nil {
		return nil, e.mapLedgerErr(err)
	}

	return &Account{
		AccountID:      acct.AccountID,
		Balance:        acct.Balance,
		LifetimeEarned: acct.LifetimeEarned,
		Active:         acct.Active,
		CreatedAt:      acct.CreatedAt,
	}, nil
}

// Debit atomically charges amount credits to the account. The balance
// check and decrement execute as one storage operation, so concurrent
// debits against the same account can never drive the balance negative.
// On shortfall it returns an [InsufficientCreditsError] carrying the
// balance the storage operation observed, and writes no transaction.
//
// The caller’s metered operation must not execute unless Debit returned a
// transaction. A timed-out call is an unknown outcome and must be treated
// as failure.
func (e *Engine) Debit(ctx context.Context, accountID string, amount int64, referenceID string) (*Transaction, error) {
	if e == nil || e.ledgerStore == nil {
		return nil, ErrEngineNotReady
	}
	if referenceID == "" {
		referenceID = uuid.NewString()
	}

	start := time.Now()
	txn, err := e.ledgerStore.Debit(ctx, accountID, amount, uuid.NewString(), referenceID)
	e.metrics.Observe(MetricDebitLatency, time.Since(start))

	if err != nil {
		mapped := e.mapLedgerErr(err)

		var insufficient *InsufficientCreditsError
		if errors.As(mapped, &insufficient) {
			e.metrics.Inc(MetricDebitInsufficient)
		} else if !errors.Is(mapped, ErrStorageUnavailable) {
			e.metrics.Inc(MetricDebitRejected)
		}

		e.emitAudit(ctx, AuditEvent{
			EventType:   "ledger.debit",
			AccountID:   accountID,
			ReferenceID: referenceID,
			Amount:      amount,
			Error:       errString(mapped),
		})
		return nil, mapped
	}

	e.metrics.Inc(MetricDebitSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "ledger.debit",
		AccountID:   accountID,
		ReferenceID: referenceID,
		Amount:      amount,
		Success:     true,
		Metadata: map[string]string{
			"balance_after": strconv.FormatInt(txn.BalanceAfter, 10),
		},
	})

	return toPublicTransaction(txn), nil
}

// DebitOperation charges the configured cost for a named metered
// operation. The cost table is opaque caller-supplied configuration.
//
// DebitOperation may return an error when input validation, dependency calls, or security checks fail.
func (e *Engine) DebitOperation(ctx context.Context, accountID, operation, referenceID string) (*Transaction, error) {
	if e == nil || e.ledgerStore == nil {
		return nil, ErrEngineNotReady
	}

	cost, ok := e.config.Costs[operation]
	if !ok {
		return nil, ErrUnknownOperation
	}

	return e.Debit(ctx, accountID, cost, referenceID)
}

// Credit unconditionally grants amount credits to the account for earned
// or refunded credits and appends the matching transaction row.
func (e *Engine) Credit(ctx context.Context, accountID string, amount int64, referenceID string) (*Transaction, error) {
	if e == nil || e.ledgerStore == nil {
		return nil, ErrEngineNotReady
	}
	if referenceID == "" {
		referenceID = uuid.NewString()
	}

	txn, err := e.ledgerStore.Credit(ctx, accountID, amount, uuid.NewString(), referenceID)
	if err != nil {
		mapped := e.mapLedgerErr(err)
		e.emitAudit(ctx, AuditEvent{
			EventType:   "ledger.credit",
			AccountID:   accountID,
			ReferenceID: referenceID,
			Amount:      amount,
			Error:       errString(mapped),
		})
		return nil, mapped
	}

	e.metrics.Inc(MetricCreditApplied)
	e.emitAudit(ctx, AuditEvent{
		EventType:   "ledger.credit",
		AccountID:   accountID,
		ReferenceID: referenceID,
		Amount:      amount,
		Success:     true,
	})

	return toPublicTransaction(txn), nil
}

// History returns up to limit transactions for the account, newest first.
// When limit is zero or negative, the configured HistoryLimit applies.
func (e *Engine) History(ctx context.Context, accountID string, limit int64) ([]Transaction, error) {
	if e == nil || e.ledgerStore == nil {
		return nil, ErrEngineNotReady
	}
	if limit <= 0 {
		limit = e.config.Ledger.HistoryLimit
	}

	rows, err := e.ledgerStore.History(ctx, accountID, limit)
	if err != nil {
		return nil, e.mapLedgerErr(err)
	}

	txns := make([]Transaction, 0, len(rows))
	for i := range rows {
		txns = append(txns, *toPublicTransaction(&rows[i]))
	}
	return txns, nil
}

func toPublicTransaction(txn *ledger.Transaction) *Transaction {
	return &Transaction{
		ID:            txn.ID,
		AccountID:     txn.AccountID,
		Type:          TxnType(txn.Type),
		Amount:        txn.Amount,
		BalanceBefore: txn.BalanceBefore,
		BalanceAfter:  txn.BalanceAfter,
		ReferenceID:   txn.ReferenceID,
		CreatedAt:     txn.CreatedAt,
	}
}

func (e *Engine) mapLedgerErr(err error) error {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &insufficient):
		return &InsufficientCreditsError{
			Required: insufficient.Requested,
			Current:  insufficient.Current,
		}
	case errors.Is(err, ledger.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, ledger.ErrAccountExists):
		return ErrAccountExists
	case errors.Is(err, ledger.ErrAccountDeactivated):
		return ErrAccountDeactivated
	case errors.Is(err, ledger.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, ledger.ErrInvalidReference):
		return ErrInvalidReferenceID
	default:
		return e.storageErr(err)
	}
}
