// Package service implements the matching engine: pairing a raw material or
// finished good record against a pending order by type and quantity
// compatibility, and committing the binding as one unit of work.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"loomline/internal/asset/models"
	"loomline/internal/events"
	"loomline/internal/ledger"
	ordersvc "loomline/internal/order/service"
	"loomline/internal/platform/metrics"
	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/platform/sentinel"
)

// Matcher binds products to compatible pending orders.
type Matcher struct {
	store   ledger.Store
	sink    events.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(m *Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) { m.logger = logger }
}

func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Matcher) { m.metrics = mx }
}

func New(store ledger.Store, sink events.Sink, opts ...Option) *Matcher {
	m := &Matcher{
		store:  store,
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Candidate is one pending order a product could satisfy.
type Candidate struct {
	Key   string       `json:"key"`
	Order models.Order `json:"order"`
}

// CandidateOrders lists pending orders compatible with the product at
// productKey: same type, quantity within what the product supplies. Read-only.
func (m *Matcher) CandidateOrders(ctx context.Context, productKey string) ([]Candidate, error) {
	value, err := m.store.Get(ctx, productKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "product %q does not exist", productKey)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read product %q", productKey))
	}
	product, err := models.DecodeProduct(value)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode product %q", productKey))
	}

	it, err := m.store.Query(ctx, ordersvc.PendingSelector(product))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query candidate orders")
	}
	defer it.Close()

	candidates := []Candidate{}
	for it.Next() {
		entry := it.Entry()
		order, err := models.DecodeOrder(entry.Value)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode order %q", entry.Key))
		}
		candidates = append(candidates, Candidate{Key: entry.Key, Order: order})
	}
	if err := it.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate candidate orders")
	}
	return candidates, nil
}

// Result is the outcome of a match attempt. A failed predicate is a negative
// result, not an error: Matched is false and Reason says why, with no state
// change.
type Result struct {
	Matched      bool   `json:"matched"`
	Confirmation string `json:"confirmation,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Match validates the product/order pair and, when compatible, transfers
// product ownership to the order's recipient, marks it AssignedToOrder, and
// deletes the order — all inside one ledger unit of work, so a partial
// binding can never be observed.
//
// Quantity compatibility is whole-lot: a product with surplus quantity still
// matches in full, and nothing is decremented.
func (m *Matcher) Match(ctx context.Context, productKey, orderKey string) (Result, error) {
	var result Result
	var matchedOrder models.Order

	err := m.store.InTx(ctx, func(tx ledger.Tx) error {
		productValue, err := tx.Get(ctx, productKey)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "product %q does not exist", productKey)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read product %q", productKey))
		}
		orderValue, err := tx.Get(ctx, orderKey)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "order %q does not exist", orderKey)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read order %q", orderKey))
		}

		product, err := models.DecodeProduct(productValue)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode product %q", productKey))
		}
		order, err := models.DecodeOrder(orderValue)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("decode order %q", orderKey))
		}

		if reason, ok := compatible(product, order); !ok {
			result = Result{Matched: false, Reason: reason}
			return nil
		}

		reassigned, err := models.Reassign(productValue, order.RetailerName)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("reassign product %q", productKey))
		}
		if err := tx.Put(ctx, productKey, reassigned); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("write product %q", productKey))
		}
		if err := tx.Delete(ctx, orderKey); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("delete order %q", orderKey))
		}

		matchedOrder = order
		result = Result{
			Matched: true,
			Confirmation: fmt.Sprintf("product %s assigned to %s, order %s fulfilled",
				productKey, order.RetailerName, orderKey),
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if !result.Matched {
		if m.metrics != nil {
			m.metrics.MatchRejections.Inc()
		}
		m.logger.InfoContext(ctx, "match rejected",
			"product", productKey, "order", orderKey, "reason", result.Reason)
		return result, nil
	}

	if m.metrics != nil {
		m.metrics.MatchesTotal.Inc()
	}
	m.logger.InfoContext(ctx, "order matched",
		"product", productKey, "order", orderKey, "recipient", matchedOrder.RetailerName)
	m.publish(ctx, orderMatchedPayload{
		ProductKey: productKey,
		OrderKey:   orderKey,
		Recipient:  matchedOrder.RetailerName,
	})
	return result, nil
}

// compatible applies the match predicate. The returned reason is caller-facing.
func compatible(product models.Product, order models.Order) (string, bool) {
	if product.Status == models.StatusAssignedToOrder {
		return "product is already assigned to an order", false
	}
	if order.Type != product.Type {
		return fmt.Sprintf("order type %q does not match product type %q", order.Type, product.Type), false
	}
	if order.Quantity > product.Quantity {
		return fmt.Sprintf("order quantity %g exceeds product quantity %g", order.Quantity, product.Quantity), false
	}
	return "", true
}

func (m *Matcher) publish(ctx context.Context, payload orderMatchedPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		m.logger.ErrorContext(ctx, "encode event payload", "event", events.OrderMatched, "error", err)
		return
	}
	if err := m.sink.Publish(ctx, events.OrderMatched, body); err != nil {
		m.logger.ErrorContext(ctx, "publish event", "event", events.OrderMatched, "error", err)
	}
}

type orderMatchedPayload struct {
	ProductKey string `json:"productKey"`
	OrderKey   string `json:"orderKey"`
	Recipient  string `json:"recipient"`
}
