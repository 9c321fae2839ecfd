// ABOUTME: Tests for the namespaced local key-value store
// ABOUTME: Covers round-trips, prefix isolation, delete idempotence and storage failures

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// failingBackend rejects writes the way a full browser quota would.
type failingBackend struct {
	*BadgerBackend
	err error
}

func (f *failingBackend) Set(key, value []byte) error { return f.err }

type mapBackend map[string][]byte

func (m mapBackend) Get(key []byte) ([]byte, error) { return m[string(key)], nil }

func (m mapBackend) Set(key, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m mapBackend) Delete(key []byte) error {
	delete(m, string(key))
	return nil
}

func (m mapBackend) Keys() ([][]byte, error) {
	var keys [][]byte
	for k := range m {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

// foldingBackend matches prefixes case-insensitively, like SQLite LIKE.
type foldingBackend struct{ mapBackend }

func (f foldingBackend) KeysWithPrefix(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	for k := range f.mapBackend {
		if len(k) >= len(prefix) && strings.EqualFold(k[:len(prefix)], string(prefix)) {
			keys = append(keys, []byte(k))
		}
	}
	return keys, nil
}

func TestScanIgnoresCaseVariantKeysFromBackend(t *testing.T) {
	backend := foldingBackend{mapBackend{}}
	store := New(backend, DefaultBasePrefix)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "task:abc", note{ID: "abc"}))
	backend.mapBackend["DUOPRO:unrelated"] = []byte(`{"id":"x"}`)
	backend.mapBackend["duopro:TASK:x"] = []byte(`{"id":"x"}`)

	entries, err := store.GetByPrefix(ctx, "task:")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task:abc", entries[0].Key)

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"task:abc", "TASK:x"}, keys)

	require.NoError(t, store.Clear(ctx))
	assert.Contains(t, backend.mapBackend, "DUOPRO:unrelated")
	assert.NotContains(t, backend.mapBackend, "duopro:TASK:x")
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Set(ctx, "note:1", note{ID: "1", Body: "hello"}))

	var got note
	require.True(t, store.Get(ctx, "note:1", &got))
	assert.Equal(t, note{ID: "1", Body: "hello"}, got)

	var missing note
	assert.False(t, store.Get(ctx, "note:2", &missing))
}

func TestKeysAreNamespacedUnderBasePrefix(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Set(ctx, "task:abc", map[string]string{"id": "abc"}))

	raw, err := store.Backend().Get([]byte("duopro:task:abc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc"}`, string(raw))

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"task:abc"}, keys)
}

func TestGetByPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Set(ctx, "task:1", note{ID: "1"}))
	require.NoError(t, store.Set(ctx, "task:2", note{ID: "2"}))
	require.NoError(t, store.Set(ctx, "lead:1", note{ID: "L1"}))
	require.NoError(t, store.Set(ctx, "tasks-offline-mode", "true"))

	entries, err := store.GetByPrefix(ctx, "task:")
	require.NoError(t, err)

	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"task:1", "task:2"}, keys)

	notes := Decode[note](entries)
	assert.Len(t, notes, 2)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Set(ctx, "task:1", note{ID: "1"}))
	require.NoError(t, store.Del(ctx, "task:1"))
	require.NoError(t, store.Del(ctx, "task:1"))
	require.NoError(t, store.Del(ctx, "never-existed"))

	var got note
	assert.False(t, store.Get(ctx, "task:1", &got))
}

func TestParseFailureReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Backend().Set([]byte("duopro:task:broken"), []byte("{not json")))
	require.NoError(t, store.Set(ctx, "task:ok", note{ID: "ok"}))

	var got note
	assert.False(t, store.Get(ctx, "task:broken", &got))

	entries, err := store.GetByPrefix(ctx, "task:")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "task:ok", entries[0].Key)
}

func TestGetIntoMismatchedTypeReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewTestStore(t)

	require.NoError(t, store.Set(ctx, "count", "not-a-number"))
	var n int
	assert.False(t, store.Get(ctx, "count", &n))
}

func TestClearLeavesUnrelatedKeys(t *testing.T) {
	ctx := context.Background()
	backend := mapBackend{}
	store := New(backend, "")

	require.NoError(t, store.Set(ctx, "task:1", note{ID: "1"}))
	require.NoError(t, store.Set(ctx, "crm-offline-mode", "true"))
	backend["other-app:setting"] = []byte(`"keep"`)

	require.NoError(t, store.Clear(ctx))

	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, []byte(`"keep"`), backend["other-app:setting"])
}

func TestSetPropagatesStorageFailure(t *testing.T) {
	ctx := context.Background()
	inner, err := OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = inner.Close() })

	quota := errors.New("quota exceeded")
	store := New(&failingBackend{BadgerBackend: inner, err: quota}, "")

	err = store.Set(ctx, "task:1", note{ID: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, quota)

	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "set", serr.Op)
	assert.Equal(t, "task:1", serr.Key)
}

func TestSetRejectsUnencodableValue(t *testing.T) {
	store := NewTestStore(t)
	err := store.Set(context.Background(), "bad", make(chan int))
	assert.ErrorIs(t, err, ErrStorage)
}

func TestCancelledContext(t *testing.T) {
	store := NewTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Set(ctx, "k", 1), context.Canceled)
	var v int
	assert.False(t, store.Get(ctx, "k", &v))
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewTestStore(t)
	require.NoError(t, src.Set(ctx, "task:1", note{ID: "1", Body: "a"}))
	require.NoError(t, src.Set(ctx, "social-offline-mode", "true"))

	dump, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, "duopro:task:1")
	assert.Contains(t, dump, "duopro:social-offline-mode")

	// Browser exports hold JSON text as strings; unrelated keys are skipped.
	dump["duopro:task:2"] = json.RawMessage(`"{\"id\":\"2\",\"body\":\"b\"}"`)
	dump["theme"] = json.RawMessage(`"dark"`)

	dst := NewTestStore(t)
	n, err := dst.Import(ctx, dump)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var got note
	require.True(t, dst.Get(ctx, "task:2", &got))
	assert.Equal(t, "b", got.Body)

	var flag string
	require.True(t, dst.Get(ctx, "social-offline-mode", &flag))
	assert.Equal(t, "true", flag)
}
