package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAccountNotFound    = errors.New("ledger account not found")
	ErrAccountExists      = errors.New("ledger account already exists")
	ErrAccountDeactivated = errors.New("ledger account deactivated")
	ErrInsufficientFunds  = errors.New("insufficient ledger balance")
	ErrRedisUnavailable   = errors.New("ledger redis unavailable")
	ErrInvalidAmount      = errors.New("ledger amount must be positive")
	ErrInvalidReference   = errors.New("ledger reference id contains reserved characters")
)

// InsufficientFundsError carries the balance observed by the conditional
// decrement at the moment it refused to apply.
type InsufficientFundsError struct {
	Requested int64
	Current   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient ledger balance: requested %d, current %d", e.Requested, e.Current)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// TxnType distinguishes the two ledger mutation kinds.
type TxnType string

const (
	TxnDebit  TxnType = "debit"
	TxnCredit TxnType = "credit"
)

// Transaction is one immutable row of the append-only ledger history.
// BalanceBefore and BalanceAfter come from the same atomic storage
// operation that applied the mutation, never from a separate read.
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

// Account is the durable balance record for one principal.
type Account struct {
	AccountID      string
	Balance        int64
	LifetimeEarned int64
	Active         bool
	CreatedAt      time.Time
}

const (
	debitStatusNotFound     int64 = -1
	debitStatusDeactivated  int64 = -2
	debitStatusInsufficient int64 = 0
	debitStatusApplied      int64 = 1
)

// Balance check and decrement are one script invocation so that two
// concurrent debits can never both observe the same "before" balance.
// The history row is appended inside the same script, which makes list
// order identical to balance commit order.
const debitScript = `
local acct_key = KEYS[1]
local tx_key = KEYS[2]
local amount = tonumber(ARGV[1])

if redis.call("EXISTS", acct_key) == 0 then
  return {-1}
end
if redis.call("HGET", acct_key, "active") ~= "1" then
  return {-2}
end

local balance = tonumber(redis.call("HGET", acct_key, "balance") or "0")
if balance < amount then
  return {0, balance}
end

local after = redis.call("HINCRBY", acct_key, "balance", -amount)
local row = ARGV[2] .. "|debit|" .. ARGV[1] .. "|" .. balance .. "|" .. after .. "|" .. ARGV[3] .. "|" .. ARGV[4]
redis.call("RPUSH", tx_key, row)
return {1, after}
`

var debitLua = redis.NewScript(debitScript)

const creditScript = `
local acct_key = KEYS[1]
local tx_key = KEYS[2]

if redis.call("EXISTS", acct_key) == 0 then
  return {-1}
end

local balance = tonumber(redis.call("HGET", acct_key, "balance") or "0")
local after = redis.call("HINCRBY", acct_key, "balance", ARGV[1])
redis.call("HINCRBY", acct_key, "lifetime_earned", ARGV[1])
local row = ARGV[2] .. "|credit|" .. ARGV[1] .. "|" .. balance .. "|" .. after .. "|" .. ARGV[3] .. "|" .. ARGV[4]
redis.call("RPUSH", tx_key, row)
return {1, after}
`

var creditLua = redis.NewScript(creditScript)

const createAccountScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "balance", ARGV[1], "lifetime_earned", ARGV[1], "active", "1", "created_at", ARGV[2])
return 1
`

var createAccountLua = redis.NewScript(createAccountScript)

// Store is a Redis-backed credit ledger. All balance mutations go through
// Lua scripts so the balance >= 0 invariant is enforced at the storage
// boundary regardless of how many processes share the ledger.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a ledger [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "lg"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) accountKey(accountID string) string {
	return s.prefix + ":acct:" + accountID
}

func (s *Store) historyKey(accountID string) string {
	return s.prefix + ":tx:" + accountID
}

// CreateAccount initializes a new account with the given starting balance.
// Returns [ErrAccountExists] if the account was already created.
func (s *Store) CreateAccount(ctx context.Context, accountID string, initialBalance int64) error {
	if initialBalance < 0 {
		return ErrInvalidAmount
	}

	created, err := createAccountLua.Run(
		ctx,
		s.redis,
		[]string{s.accountKey(accountID)},
		initialBalance,
		time.Now().Unix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return ErrAccountExists
	}

	return nil
}

// DeactivateAccount marks the account inactive. The record and its history
// are retained; accounts are never hard-deleted.
func (s *Store) DeactivateAccount(ctx context.Context, accountID string) error {
	key := s.accountKey(accountID)

	exists, err := s.redis.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return ErrAccountNotFound
	}

	if err := s.redis.HSet(ctx, key, "active", "0").Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Balance returns the current balance for the account.
func (s *Store) Balance(ctx context.Context, accountID string) (int64, error) {
	acct, err := s.Account(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// Account returns the full account record.
func (s *Store) Account(ctx context.Context, accountID string) (*Account, error) {
	fields, err := s.redis.HGetAll(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrAccountNotFound
	}

	balance, err := strconv.ParseInt(fields["balance"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt balance field: %v", ErrRedisUnavailable, err)
	}
	earned, err := strconv.ParseInt(fields["lifetime_earned"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt lifetime_earned field: %v", ErrRedisUnavailable, err)
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt created_at field: %v", ErrRedisUnavailable, err)
	}

	return &Account{
		AccountID:      accountID,
		Balance:        balance,
		LifetimeEarned: earned,
		Active:         fields["active"] == "1",
		CreatedAt:      time.Unix(createdAt, 0),
	}, nil
}

// Debit atomically decrements the balance by amount if and only if the
// current balance covers it, and appends the history row in the same
// script. On shortfall no state changes and an [InsufficientFundsError]
// is returned carrying the balance the script observed.
func (s *Store) Debit(ctx context.Context, accountID string, amount int64, txnID, referenceID string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := checkReference(referenceID); err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := debitLua.Run(
		ctx,
		s.redis,
		[]string{s.accountKey(accountID), s.historyKey(accountID)},
		amount,
		txnID,
		referenceID,
		now.UnixNano(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	status, after, err := parseScriptReply(result)
	if err != nil {
		return nil, err
	}

	switch status {
	case debitStatusNotFound:
		return nil, ErrAccountNotFound
	case debitStatusDeactivated:
		return nil, ErrAccountDeactivated
	case debitStatusInsufficient:
		return nil, &InsufficientFundsError{Requested: amount, Current: after}
	case debitStatusApplied:
		return &Transaction{
			ID:            txnID,
			AccountID:     accountID,
			Type:          TxnDebit,
			Amount:        amount,
			BalanceBefore: after + amount,
			BalanceAfter:  after,
			ReferenceID:   referenceID,
			CreatedAt:     now,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown debit script status %d", ErrRedisUnavailable, status)
	}
}

// Credit unconditionally increments the balance and lifetime-earned
// counters and appends the history row.
func (s *Store) Credit(ctx context.Context, accountID string, amount int64, txnID, referenceID string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := checkReference(referenceID); err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := creditLua.Run(
		ctx,
		s.redis,
		[]string{s.accountKey(accountID), s.historyKey(accountID)},
		amount,
		txnID,
		referenceID,
		now.UnixNano(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	status, after, err := parseScriptReply(result)
	if err != nil {
		return nil, err
	}

	switch status {
	case debitStatusNotFound:
		return nil, ErrAccountNotFound
	case debitStatusApplied:
		return &Transaction{
			ID:            txnID,
			AccountID:     accountID,
			Type:          TxnCredit,
			Amount:        amount,
			BalanceBefore: after - amount,
			BalanceAfter:  after,
			ReferenceID:   referenceID,
			CreatedAt:     now,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown credit script status %d", ErrRedisUnavailable, status)
	}
}

// History returns up to limit transactions for the account, newest first.
// The underlying list order equals balance commit order.
func (s *Store) History(ctx context.Context, accountID string, limit int64) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	exists, err := s.redis.Exists(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if exists == 0 {
		return nil, ErrAccountNotFound
	}

	rows, err := s.redis.LRange(ctx, s.historyKey(accountID), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	txns := make([]Transaction, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		txn, err := parseTransaction(accountID, rows[i])
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func checkReference(referenceID string) error {
	if strings.ContainsAny(referenceID, "|\n") {
		return ErrInvalidReference
	}
	return nil
}

func parseScriptReply(result interface{}) (status int64, balance int64, err error) {
	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return 0, 0, fmt.Errorf("%w: invalid ledger script response", ErrRedisUnavailable)
	}

	status, ok = parts[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid ledger script status", ErrRedisUnavailable)
	}

	if len(parts) > 1 {
		balance, ok = parts[1].(int64)
		if !ok {
			return 0, 0, fmt.Errorf("%w: invalid ledger script balance", ErrRedisUnavailable)
		}
	}

	return status, balance, nil
}

func parseTransaction(accountID, row string) (Transaction, error) {
	fields := strings.SplitN(row, "|", 7)
	if len(fields) != 7 {
		return Transaction{}, fmt.Errorf("%w: corrupt ledger row", ErrRedisUnavailable)
	}

	amount, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: corrupt ledger amount: %v", ErrRedisUnavailable, err)
	}
	before, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: corrupt ledger balance_before: %v", ErrRedisUnavailable, err)
	}
	after, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: corrupt ledger balance_after: %v", ErrRedisUnavailable, err)
	}
	createdAt, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: corrupt ledger created_at: %v", ErrRedisUnavailable, err)
	}

	return Transaction{
		ID:            fields[0],
		AccountID:     accountID,
		Type:          TxnType(fields[1]),
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		ReferenceID:   fields[5],
		CreatedAt:     time.Unix(0, createdAt),
	}, nil
}
