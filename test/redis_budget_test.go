//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goCredit/internal/ledger"
	"github.com/MrEthical07/goCredit/internal/rate"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// Each pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64  { return h.commands.Load() }
func (h *cmdCounter) Pipelines() int64 { return h.pipelines.Load() }

// newCountedClient creates a miniredis-backed client with a cmdCounter hook
// installed. Reset the counter before each measured operation.
func newCountedClient(t *testing.T) (*redis.Client, *cmdCounter, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, AUTH, SELECT, CLIENT SETNAME, etc.). Issuing a PING
	// before measuring avoids counting that noise.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}

	counter.Reset()

	return rdb, counter, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

// TestDebitRedisBudget verifies that a successful debit uses at most 2 Redis
// round-trips. The balance check, decrement, and history append run inside
// one Lua script; go-redis may issue EVALSHA first and fall back to EVAL on
// script-cache miss, which still counts as ≤ 2 commands on first call.
func TestDebitRedisBudget(t *testing.T) {
	rdb, counter, cleanup := newCountedClient(t)
	defer cleanup()

	ctx := context.Background()
	store := ledger.NewStore(rdb, "lg")

	if err := store.CreateAccount(ctx, "acct-budget", 1000); err != nil {
		t.Fatalf("create: %v", err)
	}

	counter.Reset()

	if _, err := store.Debit(ctx, "acct-budget", 25, "txn-1", "ref-1"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 2 {
		t.Errorf("Debit used %d Redis commands; budget is ≤ 2 (Lua script)", cmds)
	}
	t.Logf("Debit: %d commands, %d pipelines", cmds, counter.Pipelines())

	// Warm script cache: subsequent debits are exactly one EVALSHA.
	counter.Reset()
	if _, err := store.Debit(ctx, "acct-budget", 25, "txn-2", "ref-2"); err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if cmds := counter.Commands(); cmds > 1 {
		t.Errorf("warm Debit used %d Redis commands; budget is 1", cmds)
	}
}

// TestBalanceRedisBudget verifies that a balance read is a single command.
func TestBalanceRedisBudget(t *testing.T) {
	rdb, counter, cleanup := newCountedClient(t)
	defer cleanup()

	ctx := context.Background()
	store := ledger.NewStore(rdb, "lg")

	if err := store.CreateAccount(ctx, "acct-read", 100); err != nil {
		t.Fatalf("create: %v", err)
	}

	counter.Reset()

	if _, err := store.Balance(ctx, "acct-read"); err != nil {
		t.Fatalf("balance: %v", err)
	}

	cmds := counter.Commands()
	if cmds > 1 {
		t.Errorf("Balance used %d Redis commands; budget is 1", cmds)
	}
	t.Logf("Balance: %d commands, %d pipelines", cmds, counter.Pipelines())
}

// TestRateAllowRedisBudget verifies the fixed-window admit path. The first
// request in a window is INCR + PEXPIRE; later admits are a single INCR.
func TestRateAllowRedisBudget(t *testing.T) {
	rdb, counter, cleanup := newCountedClient(t)
	defer cleanup()

	ctx := context.Background()
	limiter := rate.NewRedisLimiter(rdb, "rl")
	tier := rate.Tier{MaxRequests: 10, Window: time.Minute}

	counter.Reset()

	if _, err := limiter.Allow(ctx, "api:acct-1", tier); err != nil {
		t.Fatalf("first allow: %v", err)
	}
	if cmds := counter.Commands(); cmds > 2 {
		t.Errorf("window-opening Allow used %d Redis commands; budget is ≤ 2 (INCR+PEXPIRE)", cmds)
	}

	counter.Reset()

	if _, err := limiter.Allow(ctx, "api:acct-1", tier); err != nil {
		t.Fatalf("second allow: %v", err)
	}
	cmds := counter.Commands()
	if cmds > 1 {
		t.Errorf("in-window Allow used %d Redis commands; budget is 1 (INCR)", cmds)
	}
	t.Logf("Allow: %d commands, %d pipelines", cmds, counter.Pipelines())
}
