// Package service implements the asset lifecycle engine: creation of raw
// material and finished good records with uniqueness and role gating.
//
// The engine holds no cached state. Every operation re-reads the ledger so
// correctness never depends on anything but the store's own consistency.
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

// Engine enforces creation, uniqueness, and role-gated transition rules for
// ledger-tracked assets.
type Engine struct {
	store   ledger.Store
	sink    events.Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(e *Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(store ledger.Store, sink events.Sink, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exists reports whether the ledger holds a live record at key. It is the
// uniqueness/precondition check run before every creation and reference
// validation.
func (e *Engine) Exists(ctx context.Context, key string) (bool, error) {
	_, err := e.store.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("read record %q", key))
	}
	return true, nil
}

// CreateRawMaterialParams are the attributes of a supplied lot.
type CreateRawMaterialParams struct {
	Key        string
	Type       string
	Quantity   float64
	Quality    string
	SupplyDate string
	Origin     string
	OwnerName  string
}

// CreateRawMaterial writes a new RawMaterial record with status Supplied.
// Only suppliers may call it; the key must be unused.
func (e *Engine) CreateRawMaterial(ctx context.Context, caller identity.Caller, p CreateRawMaterialParams) error {
	if caller.Role != identity.RoleSupplier {
		return dErrors.Newf(dErrors.CodeUnauthorized,
			"role %q cannot create raw material %q: requires role %q", caller.Role, p.Key, identity.RoleSupplier)
	}
	if err := e.requireAbsent(ctx, p.Key); err != nil {
		return err
	}

	record := models.RawMaterial{
		AssetType:  models.AssetTypeRawMaterial,
		Type:       p.Type,
		Quantity:   p.Quantity,
		Quality:    p.Quality,
		SupplyDate: p.SupplyDate,
		Origin:     p.Origin,
		Status:     models.StatusSupplied,
		OwnedBy:    p.OwnerName,
	}
	if err := e.put(ctx, p.Key, record); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.AssetsCreated.WithLabelValues(string(models.AssetTypeRawMaterial)).Inc()
	}
	e.logger.InfoContext(ctx, "raw material created",
		"key", p.Key, "type", p.Type, "supplier", caller.ID)
	e.publish(ctx, events.SupplyCreated, supplyCreatedPayload{Key: p.Key, Type: p.Type})
	return nil
}

// CreateFinishedGoodParams are the attributes of a manufactured good.
type CreateFinishedGoodParams struct {
	Key            string
	Type           string
	Quantity       float64
	RawMaterialIDs []string
}

// CreateFinishedGood writes a new FinishedGood record with status Created,
// owned by the calling manufacturer. The referenced raw material keys are
// recorded as informational pointers only.
func (e *Engine) CreateFinishedGood(ctx context.Context, caller identity.Caller, p CreateFinishedGoodParams) error {
	if caller.Role != identity.RoleManufacturer {
		return dErrors.Newf(dErrors.CodeUnauthorized,
			"role %q cannot create finished good %q: requires role %q", caller.Role, p.Key, identity.RoleManufacturer)
	}
	if err := e.requireAbsent(ctx, p.Key); err != nil {
		return err
	}

	record := models.FinishedGood{
		AssetType:      models.AssetTypeFinishedGood,
		Type:           p.Type,
		Quantity:       p.Quantity,
		RawMaterialIDs: p.RawMaterialIDs,
		Status:         models.StatusCreated,
		OwnedBy:        caller.ID,
	}
	if err := e.put(ctx, p.Key, record); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.AssetsCreated.WithLabelValues(string(models.AssetTypeFinishedGood)).Inc()
	}
	e.logger.InfoContext(ctx, "finished good created",
		"key", p.Key, "type", p.Type, "manufacturer", caller.ID)
	e.publish(ctx, events.FinishedGoodCreated, finishedGoodCreatedPayload{
		Key:            p.Key,
		RawMaterialIDs: p.RawMaterialIDs,
	})
	return nil
}

// requireAbsent turns an existing key into a conflict failure before any
// write happens.
func (e *Engine) requireAbsent(ctx context.Context, key string) error {
	exists, err := e.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return dErrors.Newf(dErrors.CodeConflict, "record %q already exists", key)
	}
	return nil
}

func (e *Engine) put(ctx context.Context, key string, record any) error {
	value, err := json.Marshal(record)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("encode record %q", key))
	}
	if err := e.store.Put(ctx, key, value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("write record %q", key))
	}
	return nil
}

// publish is best-effort: the state write already committed, so a sink
// failure is logged and swallowed.
func (e *Engine) publish(ctx context.Context, name string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "encode event payload", "event", name, "error", err)
		return
	}
	if err := e.sink.Publish(ctx, name, body); err != nil {
		e.logger.ErrorContext(ctx, "publish event", "event", name, "error", err)
	}
}

type supplyCreatedPayload struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

type finishedGoodCreatedPayload struct {
	Key            string   `json:"key"`
	RawMaterialIDs []string `json:"rawMaterialIds"`
}
