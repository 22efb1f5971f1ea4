package store

import (
	"context"
	"sync"

	"vibegate/pkg/domain"
	"vibegate/pkg/platform/sentinel"
)

// InMemoryAmountStore holds award amounts seeded at construction.
type InMemoryAmountStore struct {
	mu      sync.RWMutex
	amounts map[domain.AwardType]uint64
}

func NewInMemoryAmountStore(seed map[domain.AwardType]uint64) *InMemoryAmountStore {
	amounts := make(map[domain.AwardType]uint64, len(seed))
	for awardType, amount := range seed {
		amounts[awardType] = amount
	}
	return &InMemoryAmountStore{amounts: amounts}
}

func (s *InMemoryAmountStore) Get(_ context.Context, awardType domain.AwardType) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amount, ok := s.amounts[awardType]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return amount, nil
}

func (s *InMemoryAmountStore) Set(_ context.Context, awardType domain.AwardType, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amounts[awardType] = amount
	return nil
}

func (s *InMemoryAmountStore) List(_ context.Context) (map[domain.AwardType]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.AwardType]uint64, len(s.amounts))
	for awardType, amount := range s.amounts {
		out[awardType] = amount
	}
	return out, nil
}
