package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	CandidateID string
	Issuer      string
	Recipient   string
	Action      string
	Decision    string
	Reason      string
	RequestID   string
}

type AuditEvent string

const (
	EventVerificationDecision AuditEvent = "verification_decision"
	EventCredentialIssued     AuditEvent = "credential_issued"
	EventPartialIssuance      AuditEvent = "partial_issuance"
	EventCredentialRevoked    AuditEvent = "credential_revoked"
	EventIssuerAdded          AuditEvent = "issuer_added"
	EventIssuerRemoved        AuditEvent = "issuer_removed"
	EventAdminTransferred     AuditEvent = "admin_transferred"
)
