package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher appends events to a Store, either synchronously or through a
// buffered background worker. The async mode exists for the request hot
// path: a verification decision must not wait on the audit sink, and a
// full buffer drops the event rather than blocking.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	queue   chan Event
	dropped atomic.Int64
	done    sync.WaitGroup
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan Event, size)
		}
	}
}

// WithPublisherLogger reports persistence failures and drops, which are
// otherwise invisible in async mode.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.done.Done()
	for event := range p.queue {
		// The request context is long gone by the time the worker runs.
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("audit event not persisted",
				"error", err,
				"action", event.Action,
				"candidate_id", event.CandidateID,
			)
		}
	}
}

// Emit records an event. In async mode it never blocks; an event that
// does not fit in the buffer is counted and dropped.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"candidate_id", event.CandidateID,
				"dropped_total", p.dropped.Load(),
			)
		}
	}
	return nil
}

// Close stops accepting events and waits for the queue to drain.
func (p *Publisher) Close() {
	if p.queue != nil {
		close(p.queue)
		p.done.Wait()
	}
}

// Dropped reports how many events were lost to a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// List returns the audit trail for one candidate credential.
func (p *Publisher) List(ctx context.Context, candidateID string) ([]Event, error) {
	return p.store.ListByCandidate(ctx, candidateID)
}
