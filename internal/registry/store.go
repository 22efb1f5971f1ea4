package registry

import (
	"context"
	"time"

	"vibegate/pkg/domain"
)

// BindResult reports the state of a nullifier binding after a Bind call.
type BindResult struct {
	// BoundAddress is the address the nullifier is bound to after the call.
	BoundAddress domain.Address
	// Created is true when this call created the binding.
	Created bool
}

// Store persists identity records. Bind must be atomic check-then-act per
// nullifier: concurrent binds for the same nullifier see first-writer-wins,
// never a rebind.
type Store interface {
	Bind(ctx context.Context, nullifier domain.Nullifier, address domain.Address, at time.Time) (BindResult, error)
	IsVerified(ctx context.Context, address domain.Address) (bool, error)
	Find(ctx context.Context, nullifier domain.Nullifier) (IdentityRecord, error)
}
