package store

import (
	"context"
	"sync"

	"vibegate/internal/rewards"
	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

type issuanceKey struct {
	address   domain.Address
	awardType domain.AwardType
}

type issuanceState struct {
	committed bool
	record    rewards.IssuanceRecord
}

// InMemoryIssuanceStore serializes reservations with a single lock, which is
// enough to make the check-then-act sequence atomic per pair.
type InMemoryIssuanceStore struct {
	mu      sync.Mutex
	entries map[issuanceKey]*issuanceState
}

func NewInMemoryIssuanceStore() *InMemoryIssuanceStore {
	return &InMemoryIssuanceStore{entries: make(map[issuanceKey]*issuanceState)}
}

func (s *InMemoryIssuanceStore) Reserve(_ context.Context, address domain.Address, awardType domain.AwardType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := issuanceKey{address: address, awardType: awardType}
	if _, exists := s.entries[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.entries[key] = &issuanceState{}
	return nil
}

func (s *InMemoryIssuanceStore) Commit(_ context.Context, record rewards.IssuanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := issuanceKey{address: record.Address, awardType: record.AwardType}
	state, exists := s.entries[key]
	if !exists {
		return sentinel.ErrInvalidState
	}
	state.committed = true
	state.record = record
	return nil
}

func (s *InMemoryIssuanceStore) Release(_ context.Context, address domain.Address, awardType domain.AwardType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := issuanceKey{address: address, awardType: awardType}
	state, exists := s.entries[key]
	if !exists {
		return nil
	}
	if state.committed {
		// Committed issuances are append-only; only reservations release.
		return sentinel.ErrInvalidState
	}
	delete(s.entries, key)
	return nil
}

func (s *InMemoryIssuanceStore) Expunge(_ context.Context, address domain.Address, awardType domain.AwardType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, issuanceKey{address: address, awardType: awardType})
	return nil
}

func (s *InMemoryIssuanceStore) Find(_ context.Context, address domain.Address, awardType domain.AwardType) (rewards.IssuanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := issuanceKey{address: address, awardType: awardType}
	state, exists := s.entries[key]
	if !exists || !state.committed {
		return rewards.IssuanceRecord{}, sentinel.ErrNotFound
	}
	return state.record, nil
}
