package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Ledger implementations and other
// infrastructure layers return these (optionally wrapped) so services can
// translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key does not exist in the ledger
// - ErrConflict: write rejected because the key is already present
// - ErrClosed: iterator or connection used after Close
// - ErrUnavailable: collaborator temporarily unreachable
//
// For validation errors (bad input, role mismatches), use pkg/domain-errors
// directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrClosed      = errors.New("closed")
	ErrUnavailable = errors.New("unavailable")
)
