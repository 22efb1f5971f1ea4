package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and ledger adapters return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: record already exists with different contents
// - ErrAlreadyUsed: resource already consumed by another holder
// - ErrAlreadyConfigured: one-time configuration slot is occupied
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrAlreadyUsed       = errors.New("already used")
	ErrAlreadyConfigured = errors.New("already configured")
	ErrInvalidState      = errors.New("invalid state")
	ErrUnavailable       = errors.New("unavailable")
)
