// Package ledger defines the keyed record store the engines run against: an
// atomic-per-key byte store with a selector query, a stable per-key mutation
// history, and a unit-of-work for multi-key writes.
//
// The interfaces are the contract with the replicated ledger this service is
// deployed against. The in-memory and PostgreSQL implementations here honor
// the same semantics so business code and tests never care which one is
// wired in.
package ledger

import "context"

// Entry pairs a store key with one serialized record value. A nil/empty Value
// inside a history iteration marks a tombstone (the key was deleted at that
// version).
type Entry struct {
	Key   string
	Value []byte
}

// Selector is the filter expression handed to Query. AssetType is mandatory;
// Type and MaxQuantity narrow the result to records whose "type" field
// matches and whose "quantity" field does not exceed the bound.
//
// Implementations must apply every populated field server-side; returning an
// unfiltered set and leaving filtering to the caller is a defect.
type Selector struct {
	AssetType   string
	Type        string
	MaxQuantity *float64
}

// Iterator walks a query or history result. It follows the sql.Rows shape:
//
//	for it.Next() {
//	    e := it.Entry()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Callers must Close the iterator regardless of how iteration ends so the
// underlying cursor is released.
type Iterator interface {
	Next() bool
	Entry() Entry
	Err() error
	Close() error
}

// Tx is the read-write surface available inside a unit of work.
type Tx interface {
	// Get returns the current value at key, or sentinel.ErrNotFound when the
	// key has never been written or its latest version is a tombstone.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes a new version of key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete writes a tombstone for key. Deleting an absent key returns
	// sentinel.ErrNotFound.
	Delete(ctx context.Context, key string) error
}

// Store is the full keyed record store contract.
type Store interface {
	Tx

	// Query returns an iterator over the latest live version of every record
	// matching the selector. Result order is unspecified.
	Query(ctx context.Context, sel Selector) (Iterator, error)

	// History returns an iterator over every version ever written at key,
	// newest first, tombstones included. A key never written yields an empty
	// iteration, not an error.
	History(ctx context.Context, key string) (Iterator, error)

	// InTx runs fn inside one unit of work: either every write fn issues
	// commits, or none do. Engines use this for the cross-entity match
	// mutation.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
