package audit

import (
	"context"
	"sync"

	"vibegate/pkg/domain"
)

// InMemoryStore keeps audit events in memory for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns a copy of all captured events.
func (s *InMemoryStore) List() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

// ListByAddress returns captured events for one address.
func (s *InMemoryStore) ListByAddress(address domain.Address) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.Address == address {
			out = append(out, event)
		}
	}
	return out
}
