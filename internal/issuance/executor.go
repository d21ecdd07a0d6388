package issuance

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	contracts "certmint/contracts/ledger"
	"certmint/internal/audit"
	"certmint/internal/credential"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	"certmint/internal/verification"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// tokenUnitName is the unit name for every minted credential token.
const tokenUnitName = "CERT"

// Minter is the ledger surface the executor needs for token creation.
type Minter interface {
	MintToken(ctx context.Context, req contracts.MintRequest) (contracts.MintResult, error)
}

// AdminChecker answers whether an address is the registry admin, for the
// admin arm of revocation.
type AdminChecker interface {
	IsAdmin(ctx context.Context, address id.Address) (bool, error)
}

// AuditPublisher receives issuance lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Executor performs the one irreversible step in the engine: minting a
// token and durably recording the credential. It never verifies; callers
// hand it an already-evaluated outcome and it refuses anything that is
// not admitted.
type Executor struct {
	credentials CredentialStore
	minter      Minter
	recon       ReconciliationStore
	admins      AdminChecker
	logger      *slog.Logger
	metrics     *metrics.Metrics
	auditor     AuditPublisher
	group       singleflight.Group
	now         func() time.Time
}

// Option configures the Executor.
type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(e *Executor) { e.auditor = p }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(credentials CredentialStore, minter Minter, recon ReconciliationStore, admins AdminChecker, opts ...Option) *Executor {
	e := &Executor{
		credentials: credentials,
		minter:      minter,
		recon:       recon,
		admins:      admins,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute mints and records a credential for an admitted request. It is
// idempotent on the candidate identifier: if a credential already exists
// it is returned as-is, and concurrent calls for the same identifier are
// collapsed so at most one mint happens. A prior partial issuance is
// completed by reusing its minted token instead of minting again.
func (e *Executor) Execute(ctx context.Context, req credential.Request, outcome verification.Outcome) (*credential.Credential, error) {
	if !outcome.Admitted {
		return nil, dErrors.New(dErrors.CodePreconditionFailed,
			"verification outcome is not admitted: "+outcome.Diagnostic)
	}

	v, err, _ := e.group.Do(req.CandidateID.String(), func() (any, error) {
		return e.execute(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*credential.Credential), nil
}

func (e *Executor) execute(ctx context.Context, req credential.Request) (*credential.Credential, error) {
	existing, found, err := e.credentials.Get(ctx, req.CandidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential record")
	}
	if found {
		return existing, nil
	}

	tokenID, err := e.obtainToken(ctx, req)
	if err != nil {
		return nil, err
	}

	cred := &credential.Credential{
		CandidateID: req.CandidateID,
		Recipient:   req.Recipient,
		Issuer:      req.Issuer,
		ContentHash: req.ContentHash,
		Metadata:    req.Metadata,
		TokenID:     tokenID,
		Active:      true,
		IssuedAt:    e.now(),
	}

	// The token already exists; cancellation must not lose the record or
	// the inconsistency marker.
	recordCtx := context.WithoutCancel(ctx)
	if err := e.credentials.Put(recordCtx, cred); err != nil {
		e.recordPartial(recordCtx, req, tokenID, err)
		return nil, dErrors.Wrap(
			&PartialIssuanceError{CandidateID: req.CandidateID, TokenID: tokenID, Cause: err},
			dErrors.CodePartialIssuance,
			"token minted but credential recording failed")
	}
	_ = e.recon.Resolve(recordCtx, req.CandidateID)

	e.emit(ctx, audit.EventCredentialIssued, req, "issued", tokenID)
	return cred, nil
}

// obtainToken mints a new token, unless a previous attempt already minted
// one whose recording step failed, in which case that token is reused.
func (e *Executor) obtainToken(ctx context.Context, req credential.Request) (id.TokenID, error) {
	partial, found, err := e.recon.Get(ctx, req.CandidateID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read reconciliation record")
	}
	if found {
		if e.logger != nil {
			e.logger.InfoContext(ctx, "completing partial issuance with existing token",
				"candidate_id", req.CandidateID.String(),
				"token_id", partial.TokenID.String(),
			)
		}
		return partial.TokenID, nil
	}

	result, err := e.minter.MintToken(ctx, contracts.MintRequest{
		Issuer:    req.Issuer.String(),
		Recipient: req.Recipient.String(),
		UnitName:  tokenUnitName,
		AssetName: assetName(req),
		URL:       "ipfs://" + req.ContentHash.String(),
		Soulbound: true,
	})
	if err != nil {
		return "", err
	}
	if e.metrics != nil {
		e.metrics.IncrementTokensMinted()
	}
	return id.TokenID(result.TokenID), nil
}

func (e *Executor) recordPartial(ctx context.Context, req credential.Request, tokenID id.TokenID, cause error) {
	if err := e.recon.RecordPartial(ctx, PartialRecord{
		CandidateID: req.CandidateID,
		TokenID:     tokenID,
		Cause:       cause.Error(),
		RecordedAt:  e.now(),
	}); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to record partial issuance",
			"candidate_id", req.CandidateID.String(),
			"token_id", tokenID.String(),
			"error", err,
		)
	}
	if e.metrics != nil {
		e.metrics.IncrementPartialIssuances()
	}
	e.emit(ctx, audit.EventPartialIssuance, req, "partial", tokenID)
}

// Status reports whether a candidate is fully issued, stuck in a partial
// issuance, or not issued at all.
func (e *Executor) Status(ctx context.Context, candidateID id.CandidateID) (credential.IssuanceStatus, *credential.Credential, error) {
	cred, found, err := e.credentials.Get(ctx, candidateID)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential record")
	}
	if found {
		return credential.StatusIssued, cred, nil
	}

	_, partial, err := e.recon.Get(ctx, candidateID)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read reconciliation record")
	}
	if partial {
		return credential.StatusPartial, nil, nil
	}
	return credential.StatusNotIssued, nil, nil
}

// Get returns the credential record for a candidate identifier.
func (e *Executor) Get(ctx context.Context, candidateID id.CandidateID) (*credential.Credential, error) {
	cred, found, err := e.credentials.Get(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential record")
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	return cred, nil
}

// Revoke flips the credential's active flag to false. Only the original
// issuer or the registry admin may revoke; a credential is never
// re-activated. Revoking an already-revoked credential is a no-op.
func (e *Executor) Revoke(ctx context.Context, caller id.Address, candidateID id.CandidateID) (*credential.Credential, error) {
	cred, found, err := e.credentials.Get(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credential record")
	}
	if !found {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}

	if caller != cred.Issuer {
		isAdmin, err := e.admins.IsAdmin(ctx, caller)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin")
		}
		if !isAdmin {
			return nil, dErrors.New(dErrors.CodePermissionDenied,
				"only the issuer or the registry admin may revoke")
		}
	}

	if !cred.Active {
		return cred, nil
	}

	cred.Active = false
	if err := e.credentials.Put(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential record")
	}
	if e.metrics != nil {
		e.metrics.IncrementCredentialsRevoked()
	}
	e.emit(ctx, audit.EventCredentialRevoked, credential.Request{
		CandidateID: cred.CandidateID,
		Recipient:   cred.Recipient,
		Issuer:      cred.Issuer,
	}, "revoked", cred.TokenID)
	return cred, nil
}

// Partials lists outstanding partial issuances for operators.
func (e *Executor) Partials(ctx context.Context) ([]PartialRecord, error) {
	return e.recon.List(ctx)
}

func assetName(req credential.Request) string {
	if course := req.Metadata[credential.MetaCourse]; course != "" {
		return course
	}
	return req.CandidateID.String()
}

func (e *Executor) emit(ctx context.Context, event audit.AuditEvent, req credential.Request, decision string, tokenID id.TokenID) {
	if e.logger != nil {
		e.logger.InfoContext(ctx, string(event),
			"candidate_id", req.CandidateID.String(),
			"issuer", req.Issuer.String(),
			"recipient", req.Recipient.String(),
			"token_id", tokenID.String(),
			"decision", decision,
			"log_type", "audit",
		)
	}
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Emit(ctx, audit.Event{
		CandidateID: req.CandidateID.String(),
		Issuer:      req.Issuer.String(),
		Recipient:   req.Recipient.String(),
		Action:      string(event),
		Decision:    decision,
		RequestID:   middleware.GetRequestID(ctx),
	}); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
