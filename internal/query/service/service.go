// Package service implements the query facade: read-only projections over
// the ledger's selector query and per-key history.
package service

import (
	"context"
	"encoding/json"

	"loomline/internal/ledger"
	dErrors "loomline/pkg/domain-errors"
)

// Facade exposes filtered listing and per-key history.
type Facade struct {
	store ledger.Store
}

func New(store ledger.Store) *Facade {
	return &Facade{store: store}
}

// Record pairs a store key with its decoded record value.
type Record struct {
	Key    string          `json:"key"`
	Record json.RawMessage `json:"record"`
}

// ListByAssetType returns the latest live record of every key with the given
// assetType discriminator. An unknown assetType yields an empty list, never
// a failure.
func (f *Facade) ListByAssetType(ctx context.Context, assetType string) ([]Record, error) {
	it, err := f.store.Query(ctx, ledger.Selector{AssetType: assetType})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query by asset type")
	}
	return drain(it)
}

// HistoryOf returns every retained version at key in the order the store
// defines (newest first), tombstones skipped. A key never written yields an
// empty list.
func (f *Facade) HistoryOf(ctx context.Context, key string) ([]Record, error) {
	it, err := f.store.History(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read history")
	}
	return drain(it)
}

// drain consumes an iterator fully, collecting non-empty entries, and
// releases the cursor on every path so the store's resource is never leaked.
func drain(it ledger.Iterator) ([]Record, error) {
	defer it.Close()

	records := []Record{}
	for it.Next() {
		entry := it.Entry()
		if len(entry.Value) == 0 {
			continue // tombstone
		}
		records = append(records, Record{Key: entry.Key, Record: json.RawMessage(entry.Value)})
	}
	if err := it.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "iterate records")
	}
	return records, nil
}
