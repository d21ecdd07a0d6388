package handler

import (
	"time"

	"github.com/samber/lo"

	"certmint/internal/audit"
	"certmint/internal/credential"
	"certmint/internal/issuance"
	"certmint/internal/verification"
)

type LayerResultResponse struct {
	Layer      string   `json:"layer"`
	Passed     bool     `json:"passed"`
	Reason     string   `json:"reason"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type OutcomeResponse struct {
	Admitted    bool                  `json:"admitted"`
	State       string                `json:"state"`
	Diagnostic  string                `json:"diagnostic"`
	Layers      []LayerResultResponse `json:"layers"`
	EvaluatedAt time.Time             `json:"evaluated_at"`
}

func toOutcomeResponse(outcome verification.Outcome) *OutcomeResponse {
	return &OutcomeResponse{
		Admitted:   outcome.Admitted,
		State:      string(outcome.State),
		Diagnostic: outcome.Diagnostic,
		Layers: lo.Map(outcome.Layers, func(lr verification.LayerResult, _ int) LayerResultResponse {
			return LayerResultResponse{
				Layer:      string(lr.Layer),
				Passed:     lr.Passed,
				Reason:     lr.Reason,
				Confidence: lr.Confidence,
			}
		}),
		EvaluatedAt: outcome.EvaluatedAt,
	}
}

type CredentialResponse struct {
	CandidateID string            `json:"candidate_id"`
	Recipient   string            `json:"recipient"`
	Issuer      string            `json:"issuer"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	TokenID     string            `json:"token_id"`
	Active      bool              `json:"active"`
	IssuedAt    time.Time         `json:"issued_at"`
	HashMatch   *bool             `json:"hash_match,omitempty"`
}

func toCredentialResponse(cred *credential.Credential) *CredentialResponse {
	return &CredentialResponse{
		CandidateID: cred.CandidateID.String(),
		Recipient:   cred.Recipient.String(),
		Issuer:      cred.Issuer.String(),
		ContentHash: cred.ContentHash.String(),
		Metadata:    cred.Metadata,
		TokenID:     cred.TokenID.String(),
		Active:      cred.Active,
		IssuedAt:    cred.IssuedAt,
	}
}

type IssueResponse struct {
	Status     string              `json:"status"`
	Credential *CredentialResponse `json:"credential,omitempty"`
	Outcome    *OutcomeResponse    `json:"outcome,omitempty"`
}

type PartialIssuanceResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	CandidateID      string `json:"candidate_id"`
	TokenID          string `json:"token_id"`
}

type StatusResponse struct {
	CandidateID string              `json:"candidate_id"`
	Status      string              `json:"status"`
	Credential  *CredentialResponse `json:"credential,omitempty"`
}

type PartialRecordResponse struct {
	CandidateID string    `json:"candidate_id"`
	TokenID     string    `json:"token_id"`
	Cause       string    `json:"cause"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toPartialRecordResponses(records []issuance.PartialRecord) []PartialRecordResponse {
	return lo.Map(records, func(rec issuance.PartialRecord, _ int) PartialRecordResponse {
		return PartialRecordResponse{
			CandidateID: rec.CandidateID.String(),
			TokenID:     rec.TokenID.String(),
			Cause:       rec.Cause,
			RecordedAt:  rec.RecordedAt,
		}
	})
}

type AuditEventResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	Recipient string    `json:"recipient,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

func toAuditEventResponses(events []audit.Event) []AuditEventResponse {
	return lo.Map(events, func(e audit.Event, _ int) AuditEventResponse {
		return AuditEventResponse{
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Decision:  e.Decision,
			Reason:    e.Reason,
			Issuer:    e.Issuer,
			Recipient: e.Recipient,
			RequestID: e.RequestID,
		}
	})
}
