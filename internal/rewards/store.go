package rewards

import (
	"context"

	"vibegate/pkg/domain"
)

// AmountStore holds the per-award-type token quantities. Mutable only through
// the owner configuration interface, independent of the issuance flow.
type AmountStore interface {
	Get(ctx context.Context, awardType domain.AwardType) (uint64, error)
	Set(ctx context.Context, awardType domain.AwardType, amount uint64) error
	List(ctx context.Context) (map[domain.AwardType]uint64, error)
}

// IssuanceStore serializes the check-then-act issuance guard per (address,
// awardType) pair. Reserve must be atomic: under concurrent calls for the
// same pair exactly one caller wins the reservation.
type IssuanceStore interface {
	// Reserve claims the pair. Returns sentinel.ErrAlreadyUsed when the pair
	// is already reserved or committed.
	Reserve(ctx context.Context, address domain.Address, awardType domain.AwardType) error
	// Commit finalizes a reservation with the issuance record.
	Commit(ctx context.Context, record IssuanceRecord) error
	// Release abandons a reservation after a failed mint. Committed records
	// are not releasable.
	Release(ctx context.Context, address domain.Address, awardType domain.AwardType) error
	// Expunge removes the pair regardless of status. Only for unwinding a
	// committed record whose grant was fully compensated; the pair becomes
	// issuable again.
	Expunge(ctx context.Context, address domain.Address, awardType domain.AwardType) error
	// Find returns the committed record for a pair, if any.
	Find(ctx context.Context, address domain.Address, awardType domain.AwardType) (IssuanceRecord, error)
}
