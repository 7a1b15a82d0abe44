package testsupport

import (
	"context"
	"testing"

	"parcel/internal/config"
	"parcel/internal/ledger"
)

// MustOpenStore opens a ledger.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates a pending run for tests using the provided store.
func NewRun(t testing.TB, store *ledger.Store, dataset, version string) *ledger.Run {
	t.Helper()

	run, err := store.CreateRun(context.Background(), dataset, version, "", "")
	if err != nil {
		t.Fatalf("store.CreateRun: %v", err)
	}
	return run
}
