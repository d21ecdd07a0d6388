package registry

import (
	"context"

	id "certmint/pkg/domain"
)

// Store persists registry state: the admin account, per-issuer records
// and the monotonically maintained issuer counter. Implementations must
// tolerate concurrent readers during an admin write; last-writer-wins
// is acceptable for admin operations.
type Store interface {
	// GetAdmin returns the registry admin. The second return is false
	// when no admin has been bootstrapped yet.
	GetAdmin(ctx context.Context) (id.Address, bool, error)
	SetAdmin(ctx context.Context, admin id.Address) error

	// GetIssuer returns the record for an address, including tombstones.
	// The second return is false when the address was never registered.
	GetIssuer(ctx context.Context, address id.Address) (*Issuer, bool, error)
	PutIssuer(ctx context.Context, issuer *Issuer) error

	// Count returns the number of distinct issuers ever registered.
	Count(ctx context.Context) (int, error)
	SetCount(ctx context.Context, n int) error
}
