package registry

import (
	"strings"
	"time"

	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// MaxIssuerNameLen bounds the display name stored with an issuer record.
const MaxIssuerNameLen = 128

// Issuer is an authorization record for a credential-issuing account.
// Authorized=false records are tombstones: the issuer was removed but
// its first registration is still remembered so re-adding does not
// inflate the registry counter.
type Issuer struct {
	Address      id.Address
	Name         string
	Metadata     map[string]string
	Authorized   bool
	RegisteredAt time.Time
}

func NewIssuer(address id.Address, name string, metadata map[string]string, now time.Time) (*Issuer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer name is required")
	}
	if len(name) > MaxIssuerNameLen {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer name too long")
	}
	return &Issuer{
		Address:      address,
		Name:         name,
		Metadata:     metadata,
		Authorized:   true,
		RegisteredAt: now,
	}, nil
}
