package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"loomline/internal/asset/models"
	"loomline/internal/events"
	"loomline/internal/events/mocks"
	"loomline/internal/ledger"
	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/platform/sentinel"
)

type fixture struct {
	store   *ledger.InMemory
	sink    *mocks.MockSink
	matcher *Matcher
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	store := ledger.NewInMemory()
	sink := mocks.NewMockSink(ctrl)
	return &fixture{store: store, sink: sink, matcher: New(store, sink)}
}

func (f *fixture) seedRawMaterial(t *testing.T, key, typ string, quantity float64) {
	t.Helper()
	value, err := json.Marshal(models.RawMaterial{
		AssetType: models.AssetTypeRawMaterial,
		Type:      typ,
		Quantity:  quantity,
		Status:    models.StatusSupplied,
		OwnedBy:   "acme-supplies",
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), key, value))
}

func (f *fixture) seedOrder(t *testing.T, key, productKey, typ string, quantity float64) {
	t.Helper()
	value, err := json.Marshal(models.Order{
		AssetType:    models.AssetTypeOrder,
		ProductID:    productKey,
		Type:         typ,
		Quantity:     quantity,
		Status:       models.StatusOrdered,
		RetailerName: "mainstreet",
	})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), key, value))
}

func TestMatch(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O1", "RM1", "cotton", 50)

	var payload []byte
	f.sink.EXPECT().Publish(gomock.Any(), events.OrderMatched, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body []byte) error {
			payload = body
			return nil
		})

	result, err := f.matcher.Match(context.Background(), "RM1", "O1")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "product RM1 assigned to mainstreet, order O1 fulfilled", result.Confirmation)

	value, err := f.store.Get(context.Background(), "RM1")
	require.NoError(t, err)
	var product models.RawMaterial
	require.NoError(t, json.Unmarshal(value, &product))
	assert.Equal(t, models.StatusAssignedToOrder, product.Status)
	assert.Equal(t, "mainstreet", product.OwnedBy)
	assert.Equal(t, float64(100), product.Quantity, "whole-lot match leaves quantity undecremented")

	_, err = f.store.Get(context.Background(), "O1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "fulfilled order is removed")

	var event struct {
		ProductKey string `json:"productKey"`
		OrderKey   string `json:"orderKey"`
		Recipient  string `json:"recipient"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "RM1", event.ProductKey)
	assert.Equal(t, "O1", event.OrderKey)
	assert.Equal(t, "mainstreet", event.Recipient)
}

func TestMatchAgainRejectsFulfilledOrder(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O1", "RM1", "cotton", 50)

	f.sink.EXPECT().Publish(gomock.Any(), events.OrderMatched, gomock.Any()).Return(nil)
	_, err := f.matcher.Match(context.Background(), "RM1", "O1")
	require.NoError(t, err)

	_, err = f.matcher.Match(context.Background(), "RM1", "O1")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestMatchQuantityExceeded(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O2", "RM1", "cotton", 999)

	before, err := f.store.Get(context.Background(), "RM1")
	require.NoError(t, err)

	result, err := f.matcher.Match(context.Background(), "RM1", "O2")
	require.NoError(t, err, "an incompatible pair is a negative result, not an error")
	assert.False(t, result.Matched)
	assert.Contains(t, result.Reason, "exceeds product quantity")

	after, err := f.store.Get(context.Background(), "RM1")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected match leaves the product untouched")
	_, err = f.store.Get(context.Background(), "O2")
	require.NoError(t, err, "rejected match leaves the order in place")
}

func TestMatchTypeMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O3", "RM1", "silk", 10)

	result, err := f.matcher.Match(context.Background(), "RM1", "O3")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Contains(t, result.Reason, "does not match product type")
}

func TestMatchAlreadyAssignedProduct(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O1", "RM1", "cotton", 50)
	f.seedOrder(t, "O2", "RM1", "cotton", 60)

	f.sink.EXPECT().Publish(gomock.Any(), events.OrderMatched, gomock.Any()).Return(nil)
	_, err := f.matcher.Match(context.Background(), "RM1", "O1")
	require.NoError(t, err)

	result, err := f.matcher.Match(context.Background(), "RM1", "O2")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "product is already assigned to an order", result.Reason)
}

func TestMatchMissingProduct(t *testing.T) {
	f := newFixture(t)
	f.seedOrder(t, "O1", "RM1", "cotton", 50)

	_, err := f.matcher.Match(context.Background(), "RM1", "O1")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestCandidateOrders(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)
	f.seedOrder(t, "O1", "RM1", "cotton", 50)  // fits
	f.seedOrder(t, "O2", "RM1", "cotton", 999) // too large
	f.seedOrder(t, "O3", "RM1", "silk", 10)    // wrong type

	candidates, err := f.matcher.CandidateOrders(context.Background(), "RM1")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "O1", candidates[0].Key)
	assert.Equal(t, "mainstreet", candidates[0].Order.RetailerName)
	assert.Equal(t, float64(50), candidates[0].Order.Quantity)
}

func TestCandidateOrdersMissingProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.matcher.CandidateOrders(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestCandidateOrdersEmpty(t *testing.T) {
	f := newFixture(t)
	f.seedRawMaterial(t, "RM1", "cotton", 100)

	candidates, err := f.matcher.CandidateOrders(context.Background(), "RM1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.NotNil(t, candidates, "no candidates yields an empty list, not null")
}
