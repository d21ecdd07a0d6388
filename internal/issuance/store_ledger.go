package issuance

import (
	"context"
	"encoding/json"

	contracts "certmint/contracts/ledger"
	"certmint/internal/credential"
	"certmint/internal/ledger"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// LedgerCredentialStore reads and writes credential records through the
// ledger's account-scoped KV state, keyed by candidate identifier.
type LedgerCredentialStore struct {
	api ledger.API
}

func NewLedgerCredentialStore(api ledger.API) *LedgerCredentialStore {
	return &LedgerCredentialStore{api: api}
}

func (s *LedgerCredentialStore) Get(ctx context.Context, candidateID id.CandidateID) (*credential.Credential, bool, error) {
	key := contracts.StateKey{Kind: contracts.KindCredential, Owner: candidateID.String()}
	raw, ok, err := s.api.GetState(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	var state contracts.CredentialState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt credential record "+key.String())
	}
	return &credential.Credential{
		CandidateID: id.CandidateID(state.CandidateID),
		Recipient:   id.Address(state.Recipient),
		Issuer:      id.Address(state.Issuer),
		ContentHash: id.ContentHash(state.ContentHash),
		Metadata:    state.Metadata,
		TokenID:     id.TokenID(state.TokenID),
		Active:      state.Active,
		IssuedAt:    state.IssuedAt,
	}, true, nil
}

func (s *LedgerCredentialStore) Put(ctx context.Context, cred *credential.Credential) error {
	state := contracts.CredentialState{
		CandidateID: cred.CandidateID.String(),
		Recipient:   cred.Recipient.String(),
		Issuer:      cred.Issuer.String(),
		ContentHash: cred.ContentHash.String(),
		Metadata:    cred.Metadata,
		TokenID:     cred.TokenID.String(),
		Active:      cred.Active,
		IssuedAt:    cred.IssuedAt,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode credential record")
	}
	key := contracts.StateKey{Kind: contracts.KindCredential, Owner: cred.CandidateID.String()}
	return s.api.PutState(ctx, key, raw)
}

var _ CredentialStore = (*LedgerCredentialStore)(nil)
