// Package testutil centralizes the in-memory-database setup every
// package's tests need, generalizing the teacher's ownworld_test.go
// setupTestEnv helper (which re-typed the schema by hand) into a
// single call that runs the real migrations.
package testutil

import (
	"testing"

	"github.com/ownworld/core/internal/store"
)

// OpenStore opens a fresh in-memory store for the lifetime of the test.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("testutil: opening in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
