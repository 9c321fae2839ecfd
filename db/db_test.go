package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoproservices/portal/kvstore"
)

func openTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := OpenKV(filepath.Join(t.TempDir(), "nested", "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestOpenDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "test.db")
	database, err := OpenDatabase(path)
	require.NoError(t, err)
	defer database.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	var mode string
	require.NoError(t, database.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestKVGetSetDelete(t *testing.T) {
	kv := openTestKV(t)

	v, err := kv.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, kv.Set([]byte("a"), []byte("1")))
	require.NoError(t, kv.Set([]byte("a"), []byte("2")))
	v, err = kv.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, kv.Delete([]byte("a")))
	require.NoError(t, kv.Delete([]byte("a")))
	v, err = kv.Get([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestKVKeysWithPrefixTreatsWildcardsLiterally(t *testing.T) {
	kv := openTestKV(t)
	for _, k := range []string{"duopro:task:1", "duopro:task:2", "duopro:lead:1", "duoproXtask:3", "duopro_task:4"} {
		require.NoError(t, kv.Set([]byte(k), []byte("{}")))
	}

	keys, err := kv.KeysWithPrefix([]byte("duopro:task:"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("duopro:task:1"), []byte("duopro:task:2")}, keys)

	keys, err = kv.KeysWithPrefix([]byte("duopro_"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("duopro_task:4")}, keys)

	all, err := kv.Keys()
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestKVKeysWithPrefixIsCaseSensitive(t *testing.T) {
	kv := openTestKV(t)
	for _, k := range []string{"duopro:task:abc", "duopro:TASK:x", "DUOPRO:unrelated", "duopro;after"} {
		require.NoError(t, kv.Set([]byte(k), []byte("{}")))
	}

	keys, err := kv.KeysWithPrefix([]byte("duopro:task:"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("duopro:task:abc")}, keys)

	keys, err = kv.KeysWithPrefix([]byte("duopro:"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("duopro:TASK:x"), []byte("duopro:task:abc")}, keys)

	store := kvstore.New(kv, kvstore.DefaultBasePrefix)
	require.NoError(t, store.Clear(context.Background()))
	v, err := kv.Get([]byte("DUOPRO:unrelated"))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(v))
	v, err = kv.Get([]byte("duopro;after"))
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestKVBacksStore(t *testing.T) {
	kv := openTestKV(t)
	store := kvstore.New(kv, kvstore.DefaultBasePrefix)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "crm-offline-mode", "true"))
	var flag string
	require.True(t, store.Get(ctx, "crm-offline-mode", &flag))
	assert.Equal(t, "true", flag)

	raw, err := kv.Get([]byte("duopro:crm-offline-mode"))
	require.NoError(t, err)
	assert.JSONEq(t, `"true"`, string(raw))
}
