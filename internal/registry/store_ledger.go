package registry

import (
	"context"
	"encoding/json"
	"strconv"

	contracts "certmint/contracts/ledger"
	"certmint/internal/ledger"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// registryOwner is the fixed owner for singleton registry records.
const registryOwner = "registry"

// LedgerStore persists registry state in the ledger's account-scoped
// KV space using the structured keys from the contracts package.
type LedgerStore struct {
	api ledger.API
}

func NewLedgerStore(api ledger.API) *LedgerStore {
	return &LedgerStore{api: api}
}

func (s *LedgerStore) GetAdmin(ctx context.Context) (id.Address, bool, error) {
	raw, ok, err := s.api.GetState(ctx, contracts.StateKey{Kind: contracts.KindAdmin, Owner: registryOwner})
	if err != nil || !ok {
		return "", false, err
	}
	admin, err := id.ParseAddress(string(raw))
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt admin record")
	}
	return admin, true, nil
}

func (s *LedgerStore) SetAdmin(ctx context.Context, admin id.Address) error {
	key := contracts.StateKey{Kind: contracts.KindAdmin, Owner: registryOwner}
	if err := s.api.PutState(ctx, key, []byte(admin.String())); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store admin record")
	}
	return nil
}

func (s *LedgerStore) GetIssuer(ctx context.Context, address id.Address) (*Issuer, bool, error) {
	key := contracts.StateKey{Kind: contracts.KindIssuer, Owner: address.String()}
	raw, ok, err := s.api.GetState(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var state contracts.IssuerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt issuer record "+key.String())
	}
	addr, err := id.ParseAddress(state.Address)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt issuer record "+key.String())
	}
	return &Issuer{
		Address:      addr,
		Name:         state.Name,
		Metadata:     state.Metadata,
		Authorized:   state.Authorized,
		RegisteredAt: state.RegisteredAt,
	}, true, nil
}

func (s *LedgerStore) PutIssuer(ctx context.Context, issuer *Issuer) error {
	state := contracts.IssuerState{
		Address:      issuer.Address.String(),
		Name:         issuer.Name,
		Metadata:     issuer.Metadata,
		Authorized:   issuer.Authorized,
		RegisteredAt: issuer.RegisteredAt,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode issuer record")
	}
	key := contracts.StateKey{Kind: contracts.KindIssuer, Owner: issuer.Address.String()}
	if err := s.api.PutState(ctx, key, raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store issuer record "+key.String())
	}
	return nil
}

func (s *LedgerStore) Count(ctx context.Context) (int, error) {
	raw, ok, err := s.api.GetState(ctx, contracts.StateKey{Kind: contracts.KindCounter, Owner: registryOwner})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt issuer counter")
	}
	return n, nil
}

func (s *LedgerStore) SetCount(ctx context.Context, n int) error {
	key := contracts.StateKey{Kind: contracts.KindCounter, Owner: registryOwner}
	if err := s.api.PutState(ctx, key, []byte(strconv.Itoa(n))); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store issuer counter")
	}
	return nil
}

var _ Store = (*LedgerStore)(nil)
