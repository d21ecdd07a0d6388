// Package credential defines the request and record types shared by the
// verification orchestrator, the issuance executor, and their handlers.
package credential

import (
	"time"

	"certmint/pkg/domain"
)

// Request is a candidate credential submitted for verification and minting.
// It is ephemeral: it exists for the duration of one verification+mint call
// and is never persisted independently of the resulting Credential.
type Request struct {
	CandidateID domain.CandidateID
	Recipient   domain.Address
	Issuer      domain.Address
	ContentHash domain.ContentHash

	// Metadata is the issuer-supplied bag, e.g. course, student, date.
	Metadata map[string]string
}

// Metadata keys the authenticity checker requires.
const (
	MetaCourse  = "course"
	MetaStudent = "student"
	MetaDate    = "date"
)

// RequiredMetadataKeys returns the default required metadata keys.
func RequiredMetadataKeys() []string {
	return []string{MetaCourse, MetaStudent, MetaDate}
}

// Credential is the post-mint record. The ledger is the sole store of truth;
// the engine reads through to it and holds no independent cache.
type Credential struct {
	CandidateID domain.CandidateID
	Recipient   domain.Address
	Issuer      domain.Address
	ContentHash domain.ContentHash
	Metadata    map[string]string
	TokenID     domain.TokenID
	Active      bool
	IssuedAt    time.Time
}

// IssuanceStatus answers "is this candidate fully issued, partially issued,
// or not issued" for reconciliation queries.
type IssuanceStatus string

const (
	StatusNotIssued IssuanceStatus = "not_issued"
	StatusPartial   IssuanceStatus = "partial"
	StatusIssued    IssuanceStatus = "issued"
)
