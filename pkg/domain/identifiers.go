// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	dErrors "certmint/pkg/domain-errors"
)

// AddressLen is the fixed length of a ledger account address.
const AddressLen = 58

// MaxCandidateIDLen bounds caller-supplied candidate credential identifiers.
const MaxCandidateIDLen = 64

// Distinct identifier types - the compiler prevents passing a CandidateID
// where an Address is expected.
type (
	// Address is a ledger account address (issuer, recipient, or admin).
	Address string

	// CandidateID is the caller-supplied identifier of a candidate
	// credential. It must be unique within a pending batch; the issuance
	// executor is idempotent on it.
	CandidateID string

	// ContentHash is an opaque reference into the content-addressed store.
	ContentHash string

	// TokenID is the opaque handle of a minted token, assigned by the
	// external ledger.
	TokenID string
)

// addressAlphabet is the base32 alphabet used by ledger addresses.
const addressAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// contentHashPrefixes lists the hash format prefixes the content store
// recognizes (CIDv0 and CIDv1).
var contentHashPrefixes = []string{"Qm", "bafy"}

// Parse functions - use at trust boundaries (handlers, API inputs).

// ParseAddress validates the fixed-length base32 address format.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !IsValidAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 58 base32 characters")
	}
	return Address(s), nil
}

// ParseCandidateID validates a caller-supplied candidate credential identifier.
func ParseCandidateID(s string) (CandidateID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "candidate ID cannot be empty")
	}
	if len(s) > MaxCandidateIDLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "candidate ID exceeds 64 characters")
	}
	return CandidateID(s), nil
}

// ParseContentHash validates the opaque content hash against the store's
// known format prefixes.
func ParseContentHash(s string) (ContentHash, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash cannot be empty")
	}
	h := ContentHash(s)
	if !h.KnownPrefix() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash has no recognized prefix")
	}
	return h, nil
}

// IsValidAddress reports whether s matches the ledger address format without
// constructing an Address. The authenticity checker scores this as one
// criterion rather than rejecting outright.
func IsValidAddress(s string) bool {
	if len(s) != AddressLen {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(addressAlphabet, c) {
			return false
		}
	}
	return true
}

// KnownPrefix reports whether the hash carries one of the content store's
// recognized format prefixes.
func (h ContentHash) KnownPrefix() bool {
	for _, p := range contentHashPrefixes {
		if strings.HasPrefix(string(h), p) {
			return true
		}
	}
	return false
}

// String methods - for logging and debugging.

func (a Address) String() string     { return string(a) }
func (c CandidateID) String() string { return string(c) }
func (h ContentHash) String() string { return string(h) }
func (t TokenID) String() string     { return string(t) }

// IsZero checks - used for service-layer validation.

func (a Address) IsZero() bool     { return a == "" }
func (c CandidateID) IsZero() bool { return c == "" }
func (h ContentHash) IsZero() bool { return h == "" }
func (t TokenID) IsZero() bool     { return t == "" }
