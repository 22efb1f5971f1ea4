package registry

import (
	"time"

	"vibegate/pkg/domain"
)

// IdentityRecord binds a nullifier to the address that first presented it.
// Records are append-only: never deleted, never rebound. Revoked exists for a
// future revocation policy and is not set by any current operation.
type IdentityRecord struct {
	Nullifier    domain.Nullifier
	BoundAddress domain.Address
	VerifiedAt   time.Time
	Revoked      bool
}

// RegisterOutcome reports how a registration resolved.
type RegisterOutcome string

const (
	// FirstVerification: the nullifier was new and is now bound to the address.
	FirstVerification RegisterOutcome = "first_verification"
	// AlreadyVerified: the same (nullifier, address) pair re-registered.
	// Idempotent, not an error.
	AlreadyVerified RegisterOutcome = "already_verified"
)
