package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not rule failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: write collided with an existing record
// - ErrInvalidState: record in wrong state for requested operation
// - ErrUnavailable: store temporarily unavailable (retryable by the caller)
//
// Ledger rule failures (cap, cooldown, tier) use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
