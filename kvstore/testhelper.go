// ABOUTME: Test utilities for creating isolated local stores
// ABOUTME: Uses in-memory BadgerDB so tests never touch the user's data directory

package kvstore

import (
	"testing"
)

// NewTestStore creates a store over an in-memory badger backend that is
// closed when the test finishes.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	backend, err := OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return New(backend, DefaultBasePrefix)
}
