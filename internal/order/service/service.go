// Package service implements the order submodule: retailer-placed requests
// for products, stored as ledger records until the matching engine binds and
// removes them.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"loomline/internal/asset/models"
	"loomline/internal/events"
	"loomline/internal/identity"
	"loomline/internal/ledger"
	"loomline/internal/platform/metrics"
	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/platform/sentinel"
)

// Orders manages order record creation and the selector the matching engine
// uses to find pending candidates.
type Orders struct {
	store   ledger.Store
	sink    events.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(o *Orders)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orders) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orders) { o.metrics = m }
}

func New(store ledger.Store, sink events.Sink, opts ...Option) *Orders {
	o := &Orders{
		store:  store,
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CreateParams describe a retailer's order for an existing product record.
type CreateParams struct {
	OrderKey   string
	ProductKey string
	Quantity   float64
}

// Create validates the caller and target, writes the order with status
// Ordered, and returns a human-readable confirmation. The order copies the
// product's type so candidate filtering can match without dereferencing.
func (o *Orders) Create(ctx context.Context, caller identity.Caller, p CreateParams) (string, error) {
	if caller.Role != identity.RoleRetailer {
		return "", dErrors.Newf(dErrors.CodeUnauthorized,
			"role %q cannot place order %q: requires role %q", caller.Role, p.OrderKey, identity.RoleRetailer)
	}

	target, err := o.store.Get(ctx, p.ProductKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Newf(dErrors.CodeNotFound,
			"order %q references product %q which does not exist", p.OrderKey, p.ProductKey)
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read product %q", p.ProductKey))
	}
	product, err := models.DecodeProduct(target)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode product %q", p.ProductKey))
	}

	if _, err := o.store.Get(ctx, p.OrderKey); err == nil {
		return "", dErrors.Newf(dErrors.CodeConflict, "record %q already exists", p.OrderKey)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read record %q", p.OrderKey))
	}

	record := models.Order{
		AssetType:    models.AssetTypeOrder,
		ProductID:    p.ProductKey,
		Type:         product.Type,
		Quantity:     p.Quantity,
		Status:       models.StatusOrdered,
		RetailerName: caller.ID,
	}
	value, err := json.Marshal(record)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode order %q", p.OrderKey))
	}
	if err := o.store.Put(ctx, p.OrderKey, value); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("write order %q", p.OrderKey))
	}

	if o.metrics != nil {
		o.metrics.OrdersPlaced.Inc()
		o.metrics.AssetsCreated.WithLabelValues(string(models.AssetTypeOrder)).Inc()
	}
	o.logger.InfoContext(ctx, "order placed",
		"order", p.OrderKey, "product", p.ProductKey, "quantity", p.Quantity, "retailer", caller.ID)
	o.publish(ctx, orderPlacedPayload{
		OrderKey:   p.OrderKey,
		ProductKey: p.ProductKey,
		Quantity:   p.Quantity,
	})

	return fmt.Sprintf("order %s placed for product %s (quantity %g)", p.OrderKey, p.ProductKey, p.Quantity), nil
}

// PendingSelector builds the filter for orders a given product can satisfy:
// same type, quantity no greater than the product supplies.
func PendingSelector(product models.Product) ledger.Selector {
	qty := product.Quantity
	return ledger.Selector{
		AssetType:   string(models.AssetTypeOrder),
		Type:        product.Type,
		MaxQuantity: &qty,
	}
}

func (o *Orders) publish(ctx context.Context, payload orderPlacedPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		o.logger.ErrorContext(ctx, "encode event payload", "event", events.OrderPlaced, "error", err)
		return
	}
	if err := o.sink.Publish(ctx, events.OrderPlaced, body); err != nil {
		o.logger.ErrorContext(ctx, "publish event", "event", events.OrderPlaced, "error", err)
	}
}

type orderPlacedPayload struct {
	OrderKey   string  `json:"orderKey"`
	ProductKey string  `json:"productKey"`
	Quantity   float64 `json:"quantity"`
}
