package verification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmint/internal/audit"
	"certmint/internal/authenticity"
	"certmint/internal/contentstore"
	"certmint/internal/credential"
	"certmint/internal/registry"
	id "certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
)

var (
	recipientAddr = id.Address(strings.Repeat("A", 50) + "23456724")
	issuerAddr    = id.Address(strings.Repeat("B", 50) + "23456724")
)

type stubIssuers struct {
	issuer *registry.Issuer
	err    error
}

func (s *stubIssuers) Lookup(context.Context, id.Address) (*registry.Issuer, error) {
	return s.issuer, s.err
}

type stubChecker struct {
	result authenticity.Result
	err    error
}

func (s *stubChecker) Check(context.Context, credential.Request) (authenticity.Result, error) {
	return s.result, s.err
}

type stubContent struct {
	verification contentstore.Verification
	err          error
	calls        int
}

func (s *stubContent) VerifyHash(context.Context, id.ContentHash) (contentstore.Verification, error) {
	s.calls++
	return s.verification, s.err
}

func validRequest() credential.Request {
	return credential.Request{
		CandidateID: "cert-2026-0001",
		Recipient:   recipientAddr,
		Issuer:      issuerAddr,
		ContentHash: "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		Metadata: map[string]string{
			credential.MetaCourse:  "Distributed Systems",
			credential.MetaStudent: "Jordan Smith",
			credential.MetaDate:    "2026-06-15",
		},
	}
}

func authorizedIssuer() *registry.Issuer {
	return &registry.Issuer{
		Address:      issuerAddr,
		Name:         "Springfield University",
		Authorized:   true,
		RegisteredAt: time.Now(),
	}
}

func passingChecker() *stubChecker {
	return &stubChecker{result: authenticity.Result{Passed: true, Confidence: 1.0, Reason: "content authentic"}}
}

func resolvingContent() *stubContent {
	return &stubContent{verification: contentstore.Verification{Exists: true, Payload: []byte("payload")}}
}

func TestEvaluateAdmitsWhenAllLayersPass(t *testing.T) {
	orch := NewOrchestrator(&stubIssuers{issuer: authorizedIssuer()}, passingChecker(), resolvingContent())

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, outcome.Admitted)
	assert.Equal(t, StateAdmitted, outcome.State)
	assert.Len(t, outcome.Layers, 3)
	for _, lr := range outcome.Layers {
		assert.True(t, lr.Passed)
	}
	assert.Equal(t, []Layer{LayerIssuer, LayerAuthenticity, LayerContentAddress},
		[]Layer{outcome.Layers[0].Layer, outcome.Layers[1].Layer, outcome.Layers[2].Layer})
	assert.False(t, outcome.EvaluatedAt.IsZero())
}

func TestEvaluateUnknownIssuerShortCircuits(t *testing.T) {
	content := resolvingContent()
	orch := NewOrchestrator(
		&stubIssuers{err: dErrors.New(dErrors.CodeNotFound, "issuer not found")},
		passingChecker(), content)

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	assert.Equal(t, StateDenied, outcome.State)
	require.Len(t, outcome.Layers, 1, "layers 2 and 3 must be skipped")
	assert.Equal(t, "issuer not found", outcome.Layers[0].Reason)
	assert.Zero(t, content.calls, "content store must not be touched after an issuer denial")
}

func TestEvaluateRevokedIssuerHasDistinctReason(t *testing.T) {
	revoked := authorizedIssuer()
	revoked.Authorized = false
	orch := NewOrchestrator(&stubIssuers{issuer: revoked}, passingChecker(), resolvingContent())

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	require.Len(t, outcome.Layers, 1)
	assert.Equal(t, "issuer authorization revoked", outcome.Layers[0].Reason)
}

func TestEvaluateAuthenticityDenyStopsBeforeContent(t *testing.T) {
	content := resolvingContent()
	orch := NewOrchestrator(
		&stubIssuers{issuer: authorizedIssuer()},
		authenticity.NewChecklistChecker(authenticity.Config{}),
		content)

	req := validRequest()
	delete(req.Metadata, credential.MetaCourse)

	outcome, err := orch.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	require.Len(t, outcome.Layers, 2)

	authLayer := outcome.Layers[1]
	assert.Equal(t, LayerAuthenticity, authLayer.Layer)
	assert.False(t, authLayer.Passed)
	require.NotNil(t, authLayer.Confidence)
	assert.InDelta(t, 0.75, *authLayer.Confidence, 1e-9)
	assert.Contains(t, authLayer.Reason, credential.MetaCourse)
	assert.Zero(t, content.calls)
}

func TestEvaluateMissingContentDenies(t *testing.T) {
	orch := NewOrchestrator(
		&stubIssuers{issuer: authorizedIssuer()},
		passingChecker(),
		&stubContent{verification: contentstore.Verification{Exists: false}})

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	require.Len(t, outcome.Layers, 3)
	assert.False(t, outcome.Layers[2].Passed)
	assert.Contains(t, outcome.Diagnostic, "does not resolve")
}

func TestEvaluateTransportFailureIsAnErrorNotADenial(t *testing.T) {
	orch := NewOrchestrator(
		&stubIssuers{issuer: authorizedIssuer()},
		passingChecker(),
		&stubContent{err: dErrors.New(dErrors.CodeTransport, "content gateway unreachable")})

	_, err := orch.Evaluate(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport),
		"a transport fault means no decision was reached")
}

func TestEvaluateOracleFailureFollowsTransportPolicy(t *testing.T) {
	orch := NewOrchestrator(
		&stubIssuers{issuer: authorizedIssuer()},
		&stubChecker{err: dErrors.New(dErrors.CodeTransport, "oracle unreachable")},
		resolvingContent())

	_, err := orch.Evaluate(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
}

func TestEvaluateFullAuditRunsEveryLayer(t *testing.T) {
	content := resolvingContent()
	orch := NewOrchestrator(
		&stubIssuers{err: dErrors.New(dErrors.CodeNotFound, "issuer not found")},
		passingChecker(), content,
		WithFullAudit(true))

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, outcome.Admitted)
	require.Len(t, outcome.Layers, 3, "full audit mode must not short-circuit")
	assert.Equal(t, 1, content.calls)
	assert.Contains(t, outcome.Diagnostic, "issuer not found")
}

func TestEvaluateDiagnosticCollectsAllFailures(t *testing.T) {
	orch := NewOrchestrator(
		&stubIssuers{err: dErrors.New(dErrors.CodeNotFound, "issuer not found")},
		&stubChecker{result: authenticity.Result{Passed: false, Confidence: 0.5, Reason: "content hash malformed"}},
		&stubContent{verification: contentstore.Verification{Exists: false}},
		WithFullAudit(true))

	outcome, err := orch.Evaluate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Contains(t, outcome.Diagnostic, "issuer not found")
	assert.Contains(t, outcome.Diagnostic, "content hash malformed")
	assert.Contains(t, outcome.Diagnostic, "does not resolve")
}

func TestEvaluateEmitsAuditEvent(t *testing.T) {
	store := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(store)
	orch := NewOrchestrator(&stubIssuers{issuer: authorizedIssuer()}, passingChecker(), resolvingContent(),
		WithAuditPublisher(publisher))

	req := validRequest()
	_, err := orch.Evaluate(context.Background(), req)
	require.NoError(t, err)

	events, err := publisher.List(context.Background(), req.CandidateID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventVerificationDecision), events[0].Action)
	assert.Equal(t, "admitted", events[0].Decision)
}
