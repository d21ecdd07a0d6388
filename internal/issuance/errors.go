package issuance

import (
	"fmt"

	id "certmint/pkg/domain"
)

// PartialIssuanceError reports a mint whose durable-record step failed.
// The token identified by TokenID exists on the ledger and cannot be
// un-minted; the credential record does not exist yet. Callers must keep
// the token identifier so the recording step can be completed later.
type PartialIssuanceError struct {
	CandidateID id.CandidateID
	TokenID     id.TokenID
	Cause       error
}

func (e *PartialIssuanceError) Error() string {
	return fmt.Sprintf("token %s minted for %s but recording failed: %v", e.TokenID, e.CandidateID, e.Cause)
}

func (e *PartialIssuanceError) Unwrap() error {
	return e.Cause
}
