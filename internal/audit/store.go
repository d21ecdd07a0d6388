package audit

import "context"

type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCandidate(ctx context.Context, candidateID string) ([]Event, error)
}
