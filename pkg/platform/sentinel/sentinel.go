package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, limiters and publishers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key does not exist in the backing store
// - ErrUnavailable: backing service temporarily unavailable
// - ErrClosed: component was already shut down
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
