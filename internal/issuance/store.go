package issuance

import (
	"context"
	"time"

	"certmint/internal/credential"
	id "certmint/pkg/domain"
)

// CredentialStore persists minted credentials. The ledger is the store of
// truth; Get reports (record, found, error) so a missing record is an
// expected negative.
type CredentialStore interface {
	Get(ctx context.Context, candidateID id.CandidateID) (*credential.Credential, bool, error)
	Put(ctx context.Context, cred *credential.Credential) error
}

// PartialRecord captures a mint whose durable-record step failed. The
// token exists on the ledger but the credential record does not; an
// operator or retry job uses these to complete the recording step.
type PartialRecord struct {
	CandidateID id.CandidateID
	TokenID     id.TokenID
	Cause       string
	RecordedAt  time.Time
}

// ReconciliationStore tracks partial issuances. It is deliberately local:
// when the ledger write path is the thing that failed, the inconsistency
// record cannot live behind the same write path.
type ReconciliationStore interface {
	RecordPartial(ctx context.Context, rec PartialRecord) error
	Get(ctx context.Context, candidateID id.CandidateID) (*PartialRecord, bool, error)
	Resolve(ctx context.Context, candidateID id.CandidateID) error
	List(ctx context.Context) ([]PartialRecord, error)
}
