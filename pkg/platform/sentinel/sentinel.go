package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: job does not exist in the store
//   - ErrConflict: a job with the same id already exists
//   - ErrInvalidState: job is in the wrong state for the requested operation
//   - ErrUnavailable: a backing service is unreachable or saturated
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
