package buffer

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "buffer.db"), "", maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_FIFOAndRemove(t *testing.T) {
	store := openStore(t, 0)
	base := time.Now()

	for i, op := range []string{"create", "update", "delete"} {
		require.NoError(t, store.Enqueue(Item{
			UserID:    "u1",
			Operation: op,
			Data:      json.RawMessage(`{"id":"t1"}`),
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	items, err := store.GetBatch(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "create", items[0].Operation)
	assert.Equal(t, "update", items[1].Operation)
	assert.Equal(t, EntityTask, items[0].Entity)
	assert.JSONEq(t, `{"id":"t1"}`, string(items[0].Data))

	require.NoError(t, store.Remove(items[0]))
	items, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "update", items[0].Operation)
}

func TestStore_UpdateKeepsPosition(t *testing.T) {
	store := openStore(t, 0)
	base := time.Now()

	require.NoError(t, store.Enqueue(Item{Operation: "create", Timestamp: base}))
	require.NoError(t, store.Enqueue(Item{Operation: "update", Timestamp: base.Add(time.Second)}))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	first := items[0]
	first.Retries++
	require.NoError(t, store.Update(first))

	items, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "create", items[0].Operation)
	assert.Equal(t, 1, items[0].Retries)
}

func TestStore_MaxSize(t *testing.T) {
	store := openStore(t, 1)

	require.NoError(t, store.Enqueue(Item{Operation: "create"}))
	assert.ErrorIs(t, store.Enqueue(Item{Operation: "create"}), ErrFull)
}

func TestStore_Cleanup(t *testing.T) {
	store := openStore(t, 0)
	now := time.Now()

	require.NoError(t, store.Enqueue(Item{Operation: "create", Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Enqueue(Item{Operation: "update", Timestamp: now}))

	removed, err := store.Cleanup(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	items, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "update", items[0].Operation)
}

func TestStore_ClosedOrNil(t *testing.T) {
	var store *Store
	_, err := store.Size()
	assert.Error(t, err)
	assert.NoError(t, store.Close())
}
