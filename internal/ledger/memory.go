package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"loomline/pkg/platform/sentinel"
)

// InMemory keeps the full version chain per key in process memory. It backs
// unit tests and dev mode and intentionally favors clarity over performance.
type InMemory struct {
	mu       sync.RWMutex
	versions map[string][]memVersion
}

type memVersion struct {
	value   []byte
	deleted bool
}

func NewInMemory() *InMemory {
	return &InMemory{versions: make(map[string][]memVersion)}
}

func (s *InMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(key)
}

func (s *InMemory) getLocked(key string) ([]byte, error) {
	chain := s.versions[key]
	if len(chain) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := chain[len(chain)-1]
	if latest.deleted {
		return nil, sentinel.ErrNotFound
	}
	cp := make([]byte, len(latest.value))
	copy(cp, latest.value)
	return cp, nil
}

func (s *InMemory) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(key, value)
}

func (s *InMemory) putLocked(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.versions[key] = append(s.versions[key], memVersion{value: cp})
	return nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(key)
}

func (s *InMemory) deleteLocked(key string) error {
	if _, err := s.getLocked(key); err != nil {
		return err
	}
	s.versions[key] = append(s.versions[key], memVersion{deleted: true})
	return nil
}

// Query decodes the latest live version of each record and applies the full
// selector, mirroring what the backing store's query engine does server-side.
func (s *InMemory) Query(_ context.Context, sel Selector) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	for key := range s.versions {
		value, err := s.getLocked(key)
		if err != nil {
			continue // tombstoned
		}
		if matchesSelector(value, sel) {
			entries = append(entries, Entry{Key: key, Value: value})
		}
	}
	return &sliceIterator{entries: entries}, nil
}

func matchesSelector(value []byte, sel Selector) bool {
	var record struct {
		AssetType string  `json:"assetType"`
		Type      string  `json:"type"`
		Quantity  float64 `json:"quantity"`
	}
	if err := json.Unmarshal(value, &record); err != nil {
		return false
	}
	if record.AssetType != sel.AssetType {
		return false
	}
	if sel.Type != "" && record.Type != sel.Type {
		return false
	}
	if sel.MaxQuantity != nil && record.Quantity > *sel.MaxQuantity {
		return false
	}
	return true
}

// History returns the version chain newest first, tombstones included as
// entries with a nil Value.
func (s *InMemory) History(_ context.Context, key string) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := s.versions[key]
	entries := make([]Entry, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		v := chain[i]
		if v.deleted {
			entries = append(entries, Entry{Key: key})
			continue
		}
		cp := make([]byte, len(v.value))
		copy(cp, v.value)
		entries = append(entries, Entry{Key: key, Value: cp})
	}
	return &sliceIterator{entries: entries}, nil
}

// InTx holds the store lock for the duration of fn, which makes the unit of
// work trivially atomic: no other caller can observe intermediate state, and
// a returned error discards fn's staged writes.
func (s *InMemory) InTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &memTx{store: s, touched: make(map[string][]memVersion)}
	if err := fn(staged); err != nil {
		return err
	}
	for key, chain := range staged.touched {
		s.versions[key] = chain
	}
	return nil
}

// memTx stages writes against copies of the version chains so a failing
// callback leaves the store untouched.
type memTx struct {
	store   *InMemory
	touched map[string][]memVersion
}

func (t *memTx) chain(key string) []memVersion {
	if chain, ok := t.touched[key]; ok {
		return chain
	}
	return t.store.versions[key]
}

func (t *memTx) Get(_ context.Context, key string) ([]byte, error) {
	chain := t.chain(key)
	if len(chain) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := chain[len(chain)-1]
	if latest.deleted {
		return nil, sentinel.ErrNotFound
	}
	cp := make([]byte, len(latest.value))
	copy(cp, latest.value)
	return cp, nil
}

func (t *memTx) Put(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	t.touched[key] = append(append([]memVersion{}, t.chain(key)...), memVersion{value: cp})
	return nil
}

func (t *memTx) Delete(ctx context.Context, key string) error {
	if _, err := t.Get(ctx, key); err != nil {
		return err
	}
	t.touched[key] = append(append([]memVersion{}, t.chain(key)...), memVersion{deleted: true})
	return nil
}

type sliceIterator struct {
	entries []Entry
	pos     int
	current Entry
	closed  bool
}

func (it *sliceIterator) Next() bool {
	if it.closed || it.pos >= len(it.entries) {
		return false
	}
	it.current = it.entries[it.pos]
	it.pos++
	return true
}

func (it *sliceIterator) Entry() Entry { return it.current }

func (it *sliceIterator) Err() error { return nil }

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}
