package verification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"certmint/internal/audit"
	"certmint/internal/authenticity"
	"certmint/internal/contentstore"
	"certmint/internal/credential"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	"certmint/internal/registry"
	"certmint/internal/verification/tracer"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

// Layer denial reasons for the issuer layer. Unknown and revoked issuers
// both deny, but callers need to tell them apart.
const (
	reasonIssuerNotFound = "issuer not found"
	reasonIssuerRevoked  = "issuer authorization revoked"
	reasonContentMissing = "content hash does not resolve in the content store"
	reasonAllPassed      = "all verification layers passed"
)

// IssuerAuthorizer is the registry read surface the orchestrator needs.
type IssuerAuthorizer interface {
	Lookup(ctx context.Context, address id.Address) (*registry.Issuer, error)
}

// AuditPublisher receives verification decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Orchestrator evaluates candidate credentials layer by layer. Evaluation
// is strictly sequential: later layers cost network I/O that a failed
// earlier layer makes pointless. With fullAudit set, denials no longer
// short-circuit and every layer reports, trading extra I/O for a complete
// diagnostic.
type Orchestrator struct {
	issuers   IssuerAuthorizer
	checker   authenticity.Checker
	content   contentstore.Verifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	auditor   AuditPublisher
	tracer    tracer.Tracer
	fullAudit bool
	timeout   time.Duration
	now       func() time.Time
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(o *Orchestrator) { o.auditor = p }
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithFullAudit disables short-circuiting so every layer reports even
// after a denial.
func WithFullAudit(enabled bool) Option {
	return func(o *Orchestrator) { o.fullAudit = enabled }
}

// WithTimeout bounds one evaluation end to end.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(issuers IssuerAuthorizer, checker authenticity.Checker, content contentstore.Verifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		issuers: issuers,
		checker: checker,
		content: content,
		tracer:  tracer.NewNoop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate runs the admission pipeline for one candidate request. A deny
// is a normal Outcome; an error is returned only when a layer could not
// be evaluated at all (transport failure, timeout), in which case no
// admission decision was reached.
func (o *Orchestrator) Evaluate(ctx context.Context, req credential.Request) (Outcome, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, tracer.SpanEvaluate,
		tracer.String(tracer.AttrCandidateID, req.CandidateID.String()),
		tracer.String(tracer.AttrIssuer, req.Issuer.String()),
		tracer.Bool(tracer.AttrFullAudit, o.fullAudit),
	)

	started := time.Now()
	outcome, err := o.evaluate(ctx, req)
	if err != nil {
		span.End(err)
		return Outcome{}, err
	}

	if o.metrics != nil {
		o.metrics.ObserveEvaluateLatency(time.Since(started))
		o.metrics.IncrementVerification(decisionLabel(outcome.Admitted))
	}
	span.SetAttributes(tracer.Bool(tracer.AttrAdmitted, outcome.Admitted))
	o.emitDecision(ctx, req, outcome)
	span.AddEvent(tracer.EventAuditEmitted)
	span.End(nil)

	return outcome, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, req credential.Request) (Outcome, error) {
	outcome := Outcome{State: StatePending}

	steps := []struct {
		state State
		run   func(ctx context.Context) (LayerResult, error)
	}{
		{StateCheckingIssuer, func(ctx context.Context) (LayerResult, error) { return o.checkIssuer(ctx, req) }},
		{StateCheckingAuthenticity, func(ctx context.Context) (LayerResult, error) { return o.checkAuthenticity(ctx, req) }},
		{StateCheckingContent, func(ctx context.Context) (LayerResult, error) { return o.checkContent(ctx, req) }},
	}

	denied := false
	for _, step := range steps {
		outcome.State = step.state
		result, err := step.run(ctx)
		if err != nil {
			return Outcome{}, err
		}

		outcome.Layers = append(outcome.Layers, result)
		if o.metrics != nil {
			o.metrics.ObserveLayerCheck(string(result.Layer), result.Passed)
		}
		if !result.Passed {
			denied = true
			if !o.fullAudit {
				break
			}
		}
	}

	outcome.EvaluatedAt = o.now()
	if denied {
		outcome.State = StateDenied
		outcome.Admitted = false
		var reasons []string
		for _, lr := range outcome.FailedLayers() {
			reasons = append(reasons, lr.Reason)
		}
		outcome.Diagnostic = strings.Join(reasons, "; ")
		return outcome, nil
	}

	outcome.State = StateAdmitted
	outcome.Admitted = true
	outcome.Diagnostic = reasonAllPassed
	return outcome, nil
}

func (o *Orchestrator) checkIssuer(ctx context.Context, req credential.Request) (LayerResult, error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanIssuerLayer,
		tracer.String(tracer.AttrIssuer, req.Issuer.String()))

	result := LayerResult{Layer: LayerIssuer}
	issuer, err := o.issuers.Lookup(ctx, req.Issuer)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		result.Reason = reasonIssuerNotFound
	case err != nil:
		err = dErrors.Wrap(err, dErrors.CodeInternal, "issuer lookup failed")
		span.End(err)
		return LayerResult{}, err
	case !issuer.Authorized:
		result.Reason = reasonIssuerRevoked
	default:
		result.Passed = true
		result.Reason = "issuer is authorized"
	}

	o.endLayerSpan(span, result)
	return result, nil
}

func (o *Orchestrator) checkAuthenticity(ctx context.Context, req credential.Request) (LayerResult, error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanAuthenticity)

	res, err := o.checker.Check(ctx, req)
	if err != nil {
		// A remote oracle makes this layer fallible the same way the
		// content layer is; surface the fault instead of denying.
		span.End(err)
		return LayerResult{}, err
	}

	confidence := res.Confidence
	result := LayerResult{
		Layer:      LayerAuthenticity,
		Passed:     res.Passed,
		Reason:     res.Reason,
		Confidence: &confidence,
	}
	span.SetAttributes(tracer.Float64(tracer.AttrConfidence, confidence))
	o.endLayerSpan(span, result)
	return result, nil
}

func (o *Orchestrator) checkContent(ctx context.Context, req credential.Request) (LayerResult, error) {
	ctx, span := o.tracer.Start(ctx, tracer.SpanContent)

	verification, err := o.content.VerifyHash(ctx, req.ContentHash)
	if err != nil {
		span.End(err)
		return LayerResult{}, err
	}

	result := LayerResult{Layer: LayerContentAddress}
	if verification.Exists {
		result.Passed = true
		result.Reason = "content hash resolves"
	} else {
		result.Reason = reasonContentMissing
	}

	o.endLayerSpan(span, result)
	return result, nil
}

func (o *Orchestrator) endLayerSpan(span tracer.Span, result LayerResult) {
	span.SetAttributes(
		tracer.String(tracer.AttrLayer, string(result.Layer)),
		tracer.Bool(tracer.AttrPassed, result.Passed),
	)
	if !result.Passed {
		span.AddEvent(tracer.EventLayerDenied, tracer.String("reason", result.Reason))
	}
	span.End(nil)
}

func (o *Orchestrator) emitDecision(ctx context.Context, req credential.Request, outcome Outcome) {
	decision := decisionLabel(outcome.Admitted)
	if o.logger != nil {
		o.logger.InfoContext(ctx, "verification decision",
			"candidate_id", req.CandidateID.String(),
			"issuer", req.Issuer.String(),
			"decision", decision,
			"diagnostic", outcome.Diagnostic,
			"layers", len(outcome.Layers),
			"log_type", "audit",
		)
	}
	if o.auditor == nil {
		return
	}
	if err := o.auditor.Emit(ctx, audit.Event{
		CandidateID: req.CandidateID.String(),
		Issuer:      req.Issuer.String(),
		Recipient:   req.Recipient.String(),
		Action:      string(audit.EventVerificationDecision),
		Decision:    decision,
		Reason:      outcome.Diagnostic,
		RequestID:   middleware.GetRequestID(ctx),
	}); err != nil && o.logger != nil {
		o.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

func decisionLabel(admitted bool) string {
	if admitted {
		return "admitted"
	}
	return "denied"
}
