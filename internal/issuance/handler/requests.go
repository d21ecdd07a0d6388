package handler

import (
	"certmint/internal/credential"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// CredentialRequest is the body for verify and issue calls. Beyond the
// required fields, values are deliberately not format-checked here: the
// authenticity layer scores well-formedness and its verdict belongs in
// the layer results, not in a 400.
type CredentialRequest struct {
	CandidateID string            `json:"candidate_id"`
	Recipient   string            `json:"recipient"`
	Issuer      string            `json:"issuer,omitempty"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (r *CredentialRequest) Validate() error {
	if r.CandidateID == "" {
		return dErrors.New(dErrors.CodeValidation, "candidate_id is required")
	}
	if len(r.CandidateID) > id.MaxCandidateIDLen {
		return dErrors.New(dErrors.CodeValidation, "candidate_id too long")
	}
	if r.Recipient == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	if r.ContentHash == "" {
		return dErrors.New(dErrors.CodeValidation, "content_hash is required")
	}
	return nil
}

// toDomain converts the body into a domain request. The issuer defaults
// to the authenticated caller when the body leaves it out.
func (r *CredentialRequest) toDomain(caller id.Address) credential.Request {
	issuer := id.Address(r.Issuer)
	if issuer.IsZero() {
		issuer = caller
	}
	return credential.Request{
		CandidateID: id.CandidateID(r.CandidateID),
		Recipient:   id.Address(r.Recipient),
		Issuer:      issuer,
		ContentHash: id.ContentHash(r.ContentHash),
		Metadata:    r.Metadata,
	}
}

type RevokeRequest struct {
	CandidateID string `json:"candidate_id"`
}

func (r *RevokeRequest) Validate() error {
	if r.CandidateID == "" {
		return dErrors.New(dErrors.CodeValidation, "candidate_id is required")
	}
	return nil
}
