// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses the in-memory badger backend so tests run without a charm server

package charm

import (
	"testing"

	"github.com/duoproservices/portal/kvstore"
)

// testKV stands in for charm's kv.KV and counts syncs so tests can observe auto-sync.
type testKV struct {
	*kvstore.BadgerBackend
	syncs int
}

func (t *testKV) Sync() error {
	t.syncs++
	return nil
}

func (t *testKV) Reset() error {
	keys, err := t.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := t.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// NewTestClient creates a charm client over an in-memory badger database.
// The database is closed when the test finishes.
func NewTestClient(t testing.TB, autoSync bool) *Client {
	t.Helper()

	backend, err := kvstore.OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })

	return &Client{
		db:       &testKV{BadgerBackend: backend},
		autoSync: autoSync,
		host:     "localhost",
	}
}
