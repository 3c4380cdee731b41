// Package events carries state-change notifications out of the engines.
// Publication is best-effort and happens only after the corresponding ledger
// write has succeeded; a sink failure is logged by the caller and never fails
// the operation that produced it.
package events

import "context"

// Event names emitted by the engines.
const (
	SupplyCreated       = "supply-created"
	FinishedGoodCreated = "finished-good-created"
	OrderPlaced         = "order-placed"
	OrderMatched        = "order-matched"
)

// Sink publishes a named notification with a serialized payload.
//
//go:generate go run go.uber.org/mock/mockgen -source=events.go -destination=mocks/sink.go -package=mocks
type Sink interface {
	Publish(ctx context.Context, name string, payload []byte) error
}
