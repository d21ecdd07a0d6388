package registry

import (
	"context"
	"sync"

	id "certmint/pkg/domain"
)

// InMemoryStore keeps registry state in process memory. Used by tests
// and the demo environment; production runs against the ledger store.
type InMemoryStore struct {
	mu      sync.RWMutex
	admin   id.Address
	issuers map[id.Address]*Issuer
	count   int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{issuers: make(map[id.Address]*Issuer)}
}

func (s *InMemoryStore) GetAdmin(_ context.Context) (id.Address, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, !s.admin.IsZero(), nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, admin id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}

func (s *InMemoryStore) GetIssuer(_ context.Context, address id.Address) (*Issuer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iss, ok := s.issuers[address]
	if !ok {
		return nil, false, nil
	}
	cp := *iss
	return &cp, true, nil
}

func (s *InMemoryStore) PutIssuer(_ context.Context, issuer *Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *issuer
	s.issuers[issuer.Address] = &cp
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

func (s *InMemoryStore) SetCount(_ context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
	return nil
}

var _ Store = (*InMemoryStore)(nil)
