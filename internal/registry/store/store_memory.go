package store

import (
	"context"
	"sync"
	"time"

	"vibegate/internal/registry"
	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// InMemoryStore keeps the initial implementation lightweight and testable. It
// intentionally favors clarity over performance.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[domain.Nullifier]registry.IdentityRecord
	addresses map[domain.Address]domain.Nullifier
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[domain.Nullifier]registry.IdentityRecord),
		addresses: make(map[domain.Address]domain.Nullifier),
	}
}

func (s *InMemoryStore) Bind(_ context.Context, nullifier domain.Nullifier, address domain.Address, at time.Time) (registry.BindResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[nullifier]; ok {
		return registry.BindResult{BoundAddress: existing.BoundAddress, Created: false}, nil
	}

	s.records[nullifier] = registry.IdentityRecord{
		Nullifier:    nullifier,
		BoundAddress: address,
		VerifiedAt:   at,
	}
	s.addresses[address] = nullifier
	return registry.BindResult{BoundAddress: address, Created: true}, nil
}

func (s *InMemoryStore) IsVerified(_ context.Context, address domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nullifier, ok := s.addresses[address]
	if !ok {
		return false, nil
	}
	return !s.records[nullifier].Revoked, nil
}

func (s *InMemoryStore) Find(_ context.Context, nullifier domain.Nullifier) (registry.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, ok := s.records[nullifier]; ok {
		return record, nil
	}
	return registry.IdentityRecord{}, sentinel.ErrNotFound
}
