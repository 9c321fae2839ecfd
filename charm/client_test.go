package charm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duoproservices/portal/kvstore"
)

func TestClientMissingKeyIsNil(t *testing.T) {
	c := NewTestClient(t, false)

	v, err := c.Get([]byte("nope"))
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, c.Delete([]byte("nope")))
}

func TestClientAutoSyncOnWrite(t *testing.T) {
	c := NewTestClient(t, true)
	tkv := c.db.(*testKV)

	require.NoError(t, c.Set([]byte("duopro:lead:1"), []byte(`{}`)))
	require.NoError(t, c.Delete([]byte("duopro:lead:1")))
	assert.Equal(t, 2, tkv.syncs)

	quiet := NewTestClient(t, false)
	require.NoError(t, quiet.Set([]byte("k"), []byte("v")))
	assert.Equal(t, 0, quiet.db.(*testKV).syncs)
}

func TestClientKeysWithPrefix(t *testing.T) {
	c := NewTestClient(t, false)
	for _, k := range []string{"duopro:task:1", "duopro:task:2", "duopro:lead:1", "other"} {
		require.NoError(t, c.Set([]byte(k), []byte("1")))
	}

	keys, err := c.KeysWithPrefix([]byte("duopro:task:"))
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	require.NoError(t, c.Reset())
	keys, err = c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestClientBacksStore(t *testing.T) {
	c := NewTestClient(t, false)
	store := kvstore.New(c, "")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "tasks-offline-mode", "true"))
	keys, err := store.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks-offline-mode"}, keys)
}
