package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps the trail as one ordered log, the way an
// append-only sink would, and filters on read.
type InMemoryStore struct {
	mu  sync.RWMutex
	log []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, event)
	return nil
}

func (s *InMemoryStore) ListByCandidate(_ context.Context, candidateID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var events []Event
	for _, e := range s.log {
		if e.CandidateID == candidateID {
			events = append(events, e)
		}
	}
	return events, nil
}
