package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestMergeAddsAndSums(t *testing.T) {
	var entries []models.CartEntry

	entries = Merge(entries, 1, 2)
	entries = Merge(entries, 2, 1)
	entries = Merge(entries, 1, 3)

	require.Len(t, entries, 2)
	assert.Equal(t, models.CartEntry{ProductID: 1, Quantity: 5}, entries[0])
	assert.Equal(t, models.CartEntry{ProductID: 2, Quantity: 1}, entries[1])
}

func TestMergePreservesInsertionOrder(t *testing.T) {
	var entries []models.CartEntry
	for _, id := range []int64{5, 3, 9, 1} {
		entries = Merge(entries, id, 1)
	}

	// bumping an existing entry must not move it
	entries = Merge(entries, 3, 4)

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	assert.Equal(t, []int64{5, 3, 9, 1}, ids)
}

func TestMergeIgnoresNonPositiveForNewEntry(t *testing.T) {
	entries := Merge(nil, 1, 0)
	assert.Empty(t, entries)

	entries = Merge(nil, 1, -2)
	assert.Empty(t, entries)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	entries := []models.CartEntry{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}

	entries = SetQuantity(entries, 1, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ProductID)

	entries = SetQuantity(entries, 2, -3)
	assert.Empty(t, entries)
}

func TestSetQuantityOverwrites(t *testing.T) {
	entries := []models.CartEntry{{ProductID: 1, Quantity: 2}}
	entries = SetQuantity(entries, 1, 7)

	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Quantity)
}

func TestRemove(t *testing.T) {
	entries := []models.CartEntry{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 3, Quantity: 4},
	}

	entries = Remove(entries, 2)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].ProductID)
	assert.Equal(t, int64(3), entries[1].ProductID)

	// removing an absent product is a no-op
	entries = Remove(entries, 42)
	assert.Len(t, entries, 2)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entries, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	want := []models.CartEntry{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}
	require.NoError(t, store.Set(ctx, "s1", want))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// sessions are isolated
	other, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.Clear(ctx, "s1"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreCopiesOnGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "s1", []models.CartEntry{{ProductID: 1, Quantity: 2}}))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	got[0].Quantity = 99

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Quantity)
}
