//go:build integration
// +build integration

package test

import (
	"context"
	"testing"

	"github.com/MrEthical07/goCredit/internal/ledger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T) (*ledger.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := ledger.NewStore(rdb, "lg")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func seedAccount(t *testing.T, store *ledger.Store, accountID string, balance int64) {
	t.Helper()

	if err := store.CreateAccount(context.Background(), accountID, balance); err != nil {
		t.Fatalf("seed account %s failed: %v", accountID, err)
	}
}
