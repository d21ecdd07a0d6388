package issuance

import (
	"context"
	"sync"
	"time"

	"certmint/internal/credential"
	id "certmint/pkg/domain"
)

// InMemoryCredentialStore keeps credentials in process memory. Used by
// tests and the demo environment.
type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[id.CandidateID]*credential.Credential
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{creds: make(map[id.CandidateID]*credential.Credential)}
}

func (s *InMemoryCredentialStore) Get(_ context.Context, candidateID id.CandidateID) (*credential.Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[candidateID]
	if !ok {
		return nil, false, nil
	}
	cp := *cred
	return &cp, true, nil
}

func (s *InMemoryCredentialStore) Put(_ context.Context, cred *credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cred
	s.creds[cred.CandidateID] = &cp
	return nil
}

var _ CredentialStore = (*InMemoryCredentialStore)(nil)

// InMemoryReconciliationStore tracks partial issuances in process memory.
// Reconciliation is local on purpose; see ReconciliationStore.
type InMemoryReconciliationStore struct {
	mu       sync.RWMutex
	partials map[id.CandidateID]PartialRecord
}

func NewInMemoryReconciliationStore() *InMemoryReconciliationStore {
	return &InMemoryReconciliationStore{partials: make(map[id.CandidateID]PartialRecord)}
}

func (s *InMemoryReconciliationStore) RecordPartial(_ context.Context, rec PartialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	s.partials[rec.CandidateID] = rec
	return nil
}

func (s *InMemoryReconciliationStore) Get(_ context.Context, candidateID id.CandidateID) (*PartialRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.partials[candidateID]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (s *InMemoryReconciliationStore) Resolve(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.partials, candidateID)
	return nil
}

func (s *InMemoryReconciliationStore) List(_ context.Context) ([]PartialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PartialRecord, 0, len(s.partials))
	for _, rec := range s.partials {
		out = append(out, rec)
	}
	return out, nil
}

var _ ReconciliationStore = (*InMemoryReconciliationStore)(nil)
