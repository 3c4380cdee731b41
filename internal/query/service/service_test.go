package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomline/internal/ledger"
)

func TestListByAssetType(t *testing.T) {
	store := ledger.NewInMemory()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "RM1", []byte(`{"assetType":"rawMaterial","type":"cotton"}`)))
	require.NoError(t, store.Put(ctx, "RM2", []byte(`{"assetType":"rawMaterial","type":"silk"}`)))
	require.NoError(t, store.Put(ctx, "O1", []byte(`{"assetType":"order","type":"cotton"}`)))

	facade := New(store)
	records, err := facade.ListByAssetType(ctx, "rawMaterial")
	require.NoError(t, err)

	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key)
	}
	assert.ElementsMatch(t, []string{"RM1", "RM2"}, keys)
}

func TestListByAssetTypeExcludesDeleted(t *testing.T) {
	store := ledger.NewInMemory()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "O1", []byte(`{"assetType":"order"}`)))
	require.NoError(t, store.Put(ctx, "O2", []byte(`{"assetType":"order"}`)))
	require.NoError(t, store.Delete(ctx, "O2"))

	records, err := New(store).ListByAssetType(ctx, "order")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "O1", records[0].Key)
}

func TestListByAssetTypeUnknownTypeIsEmpty(t *testing.T) {
	records, err := New(ledger.NewInMemory()).ListByAssetType(context.Background(), "spaceship")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestHistoryOf(t *testing.T) {
	store := ledger.NewInMemory()
	ctx := context.Background()
	first := []byte(`{"assetType":"rawMaterial","ownedBy":"acme-supplies"}`)
	second := []byte(`{"assetType":"rawMaterial","ownedBy":"mainstreet"}`)
	require.NoError(t, store.Put(ctx, "RM1", first))
	require.NoError(t, store.Put(ctx, "RM1", second))

	records, err := New(store).HistoryOf(ctx, "RM1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, string(second), string(records[0].Record), "newest version first")
	assert.JSONEq(t, string(first), string(records[1].Record))
}

func TestHistoryOfSkipsTombstones(t *testing.T) {
	store := ledger.NewInMemory()
	ctx := context.Background()
	value := []byte(`{"assetType":"order"}`)
	require.NoError(t, store.Put(ctx, "O1", value))
	require.NoError(t, store.Delete(ctx, "O1"))

	records, err := New(store).HistoryOf(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, string(value), string(records[0].Record))
}

func TestHistoryOfUnknownKeyIsEmpty(t *testing.T) {
	records, err := New(ledger.NewInMemory()).HistoryOf(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
