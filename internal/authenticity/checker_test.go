package authenticity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmint/internal/credential"
	id "certmint/pkg/domain"
)

var (
	recipientAddr = id.Address(strings.Repeat("A", 50) + "23456724")
	issuerAddr    = id.Address(strings.Repeat("B", 50) + "23456724")
)

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

func TestChecklistFullPass(t *testing.T) {
	checker := NewChecklistChecker(Config{})

	res, err := checker.Check(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Contains(t, res.Reason, "content authentic")
}

func TestChecklistMissingCourseDenies(t *testing.T) {
	checker := NewChecklistChecker(Config{})

	req := validRequest()
	delete(req.Metadata, credential.MetaCourse)

	res, err := checker.Check(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.InDelta(t, 0.75, res.Confidence, 1e-9)
	assert.Contains(t, res.Reason, credential.MetaCourse)
}

func TestChecklistCriteria(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(req *credential.Request)
		wantConfidence float64
		wantInReason   string
	}{
		{
			name:           "trivial candidate id",
			mutate:         func(req *credential.Request) { req.CandidateID = "x" },
			wantConfidence: 0.80,
			wantInReason:   "candidate identifier",
		},
		{
			name:           "unknown hash prefix",
			mutate:         func(req *credential.Request) { req.ContentHash = "sha256:deadbeef" },
			wantConfidence: 0.75,
			wantInReason:   "content hash",
		},
		{
			name:           "short recipient",
			mutate:         func(req *credential.Request) { req.Recipient = "RECIPIENT" },
			wantConfidence: 0.85,
			wantInReason:   "recipient",
		},
		{
			name:           "lowercase issuer",
			mutate:         func(req *credential.Request) { req.Issuer = id.Address(strings.Repeat("a", 58)) },
			wantConfidence: 0.85,
			wantInReason:   "issuer",
		},
		{
			name:           "empty metadata",
			mutate:         func(req *credential.Request) { req.Metadata = nil },
			wantConfidence: 0.75,
			wantInReason:   "metadata missing required keys",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecklistChecker(Config{})
			req := validRequest()
			tt.mutate(&req)

			res, err := checker.Check(context.Background(), req)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantConfidence, res.Confidence, 1e-9)
			if res.Passed {
				assert.Contains(t, res.Reason, "content authentic")
			} else {
				assert.Contains(t, res.Reason, tt.wantInReason)
			}
		})
	}
}

func TestChecklistReportsAllFailures(t *testing.T) {
	checker := NewChecklistChecker(Config{})

	req := validRequest()
	req.ContentHash = "nothash"
	req.Metadata = map[string]string{}

	res, err := checker.Check(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.InDelta(t, 0.50, res.Confidence, 1e-9)
	// Both failed criteria are reported, joined into one diagnostic.
	assert.Contains(t, res.Reason, "content hash")
	assert.Contains(t, res.Reason, "metadata missing required keys")
	assert.Contains(t, res.Reason, "; ")
}

func TestChecklistExactThresholdPasses(t *testing.T) {
	checker := NewChecklistChecker(Config{})

	// Failing only the candidate-id criterion lands exactly on 0.80.
	req := validRequest()
	req.CandidateID = "ab"

	res, err := checker.Check(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Passed, "confidence equal to the threshold must pass")
}

func TestChecklistCustomThreshold(t *testing.T) {
	checker := NewChecklistChecker(Config{Threshold: 0.90})

	req := validRequest()
	req.CandidateID = "ab"

	res, err := checker.Check(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Passed)
}
