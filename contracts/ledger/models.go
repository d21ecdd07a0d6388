// Package ledger defines the wire contract between the issuance engine and the
// external append-only ledger. The ledger exposes account-scoped key-value
// state and a token-minting call; these types pin down the keys and payloads
// so engine services and the ledger adapter stay in sync.
package ledger

import "time"

// ContractVersion identifies the schema for ledger state shared across services.
const ContractVersion = "v0.1.0"

// Kind tags a state key with the record family it addresses. Structured keys
// replace the string-concatenation scheme ("cert_" + address) so the storage
// adapter owns the physical encoding.
type Kind string

const (
	KindAdmin      Kind = "admin"
	KindCounter    Kind = "counter"
	KindIssuer     Kind = "issuer"
	KindCredential Kind = "credential"
)

// StateKey addresses one record in the ledger's account-scoped KV state.
// Owner is the issuer address for issuer records and the candidate credential
// identifier for credential records. Admin and counter records use a fixed
// owner of "registry".
type StateKey struct {
	Kind  Kind
	Owner string
}

// String renders the key in its canonical "kind/owner" form for logging and
// for adapters that need a flat key.
func (k StateKey) String() string {
	return string(k.Kind) + "/" + k.Owner
}

// IssuerState is the JSON payload stored under a KindIssuer key. A record with
// Authorized=false is a tombstone: the issuer was revoked but the record is
// retained for audit, and re-adding must not bump the issuer counter again.
type IssuerState struct {
	Address      string            `json:"address"`
	Name         string            `json:"name"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Authorized   bool              `json:"authorized"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// CredentialState is the JSON payload stored under a KindCredential key after
// a successful mint-and-record sequence.
type CredentialState struct {
	CandidateID string            `json:"candidate_id"`
	Recipient   string            `json:"recipient"`
	Issuer      string            `json:"issuer"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	TokenID     string            `json:"token_id"`
	Active      bool              `json:"active"`
	IssuedAt    time.Time         `json:"issued_at"`
}

// MintRequest describes the token to mint. Soulbound tokens are created with
// no freeze and no clawback authority so they cannot be transferred on after
// delivery to the recipient.
type MintRequest struct {
	Issuer    string `json:"issuer"`
	Recipient string `json:"recipient"`
	UnitName  string `json:"unit_name"`  // max 8 chars
	AssetName string `json:"asset_name"` // max 32 chars
	URL       string `json:"url"`        // max 96 chars
	Soulbound bool   `json:"soulbound"`
}

// MintResult carries the opaque token handle and the ledger transaction that
// created it.
type MintResult struct {
	TokenID string `json:"token_id"`
	TxID    string `json:"tx_id"`
}

// Field caps enforced by the ledger's asset parameters. Requests exceeding
// these are truncated by the adapter, matching the ledger's own behavior.
const (
	MaxUnitNameLen  = 8
	MaxAssetNameLen = 32
	MaxURLLen       = 96
)
