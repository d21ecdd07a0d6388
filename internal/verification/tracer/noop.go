package tracer

import "context"

// NewNoop returns the tracer used when tracing is not configured. It
// keeps the orchestrator free of nil checks.
func NewNoop() NoopTracer {
	return NoopTracer{}
}

type NoopTracer struct{}

func (NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                     {}
func (noopSpan) SetAttributes(...Attribute)    {}
func (noopSpan) AddEvent(string, ...Attribute) {}

var (
	_ Tracer = NoopTracer{}
	_ Span   = noopSpan{}
)
