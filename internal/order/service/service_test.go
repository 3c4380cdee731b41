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
	"loomline/internal/identity"
	"loomline/internal/ledger"
	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/platform/sentinel"
)

var retailer = identity.Caller{ID: "mainstreet", Role: identity.RoleRetailer}

func seedProduct(t *testing.T, store *ledger.InMemory, key string) {
	t.Helper()
	value, err := json.Marshal(models.RawMaterial{
		AssetType: models.AssetTypeRawMaterial,
		Type:      "cotton",
		Quantity:  100,
		Status:    models.StatusSupplied,
		OwnedBy:   "acme-supplies",
	})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), key, value))
}

func TestCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := ledger.NewInMemory()
	sink := mocks.NewMockSink(ctrl)
	orders := New(store, sink)
	seedProduct(t, store, "RM1")

	var payload []byte
	sink.EXPECT().Publish(gomock.Any(), events.OrderPlaced, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, body []byte) error {
			payload = body
			return nil
		})

	confirmation, err := orders.Create(context.Background(), retailer, CreateParams{
		OrderKey:   "O1",
		ProductKey: "RM1",
		Quantity:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, "order O1 placed for product RM1 (quantity 50)", confirmation)

	value, err := store.Get(context.Background(), "O1")
	require.NoError(t, err)
	order, err := models.DecodeOrder(value)
	require.NoError(t, err)
	assert.Equal(t, models.AssetTypeOrder, order.AssetType)
	assert.Equal(t, models.StatusOrdered, order.Status)
	assert.Equal(t, "RM1", order.ProductID)
	assert.Equal(t, "cotton", order.Type, "order inherits the product's type")
	assert.Equal(t, "mainstreet", order.RetailerName)

	var event struct {
		OrderKey   string  `json:"orderKey"`
		ProductKey string  `json:"productKey"`
		Quantity   float64 `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "O1", event.OrderKey)
	assert.Equal(t, "RM1", event.ProductKey)
	assert.Equal(t, float64(50), event.Quantity)
}

func TestCreateRejectsWrongRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := ledger.NewInMemory()
	orders := New(store, mocks.NewMockSink(ctrl))
	seedProduct(t, store, "RM1")

	supplier := identity.Caller{ID: "acme-supplies", Role: identity.RoleSupplier}
	_, err := orders.Create(context.Background(), supplier, CreateParams{
		OrderKey:   "O1",
		ProductKey: "RM1",
		Quantity:   50,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))

	_, err = store.Get(context.Background(), "O1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCreateRejectsMissingProduct(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := New(ledger.NewInMemory(), mocks.NewMockSink(ctrl))

	_, err := orders.Create(context.Background(), retailer, CreateParams{
		OrderKey:   "O1",
		ProductKey: "no-such-product",
		Quantity:   50,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestCreateRejectsDuplicateOrderKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := ledger.NewInMemory()
	sink := mocks.NewMockSink(ctrl)
	orders := New(store, sink)
	seedProduct(t, store, "RM1")

	sink.EXPECT().Publish(gomock.Any(), events.OrderPlaced, gomock.Any()).Return(nil)
	_, err := orders.Create(context.Background(), retailer, CreateParams{
		OrderKey:   "O1",
		ProductKey: "RM1",
		Quantity:   50,
	})
	require.NoError(t, err)

	_, err = orders.Create(context.Background(), retailer, CreateParams{
		OrderKey:   "O1",
		ProductKey: "RM1",
		Quantity:   10,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestPendingSelector(t *testing.T) {
	selector := PendingSelector(models.Product{Type: "cotton", Quantity: 100})
	assert.Equal(t, string(models.AssetTypeOrder), selector.AssetType)
	assert.Equal(t, "cotton", selector.Type)
	require.NotNil(t, selector.MaxQuantity)
	assert.Equal(t, float64(100), *selector.MaxQuantity)
}
