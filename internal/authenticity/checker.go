// Package authenticity scores candidate credentials for content
// authenticity. The default checker is a pure weighted checklist over the
// request; an optional remote oracle can replace it, at the cost of making
// the layer fallible over the network.
package authenticity

import (
	"context"
	"fmt"
	"strings"

	"certmint/internal/credential"
	"certmint/pkg/domain"
)

// DefaultThreshold is the confidence a request must reach to pass.
const DefaultThreshold = 0.80

// minCandidateIDLen rejects trivial identifiers like "x".
const minCandidateIDLen = 3

// thresholdEpsilon absorbs float accumulation error so that criteria
// weights summing to exactly the threshold still pass.
const thresholdEpsilon = 1e-9

// Result is one authenticity evaluation. Reason carries the positive
// message when passed, otherwise every failed criterion's explanation.
type Result struct {
	Passed     bool
	Confidence float64
	Reason     string
}

// Checker evaluates a candidate request. The checklist implementation
// never returns an error; a remote oracle may fail with a transport error.
type Checker interface {
	Check(ctx context.Context, req credential.Request) (Result, error)
}

// Config tunes the checklist scoring.
type Config struct {
	// Threshold is the minimum confidence to pass. Zero means DefaultThreshold.
	Threshold float64
	// RequiredMetadataKeys overrides the default required keys when non-nil.
	RequiredMetadataKeys []string
}

type criterion struct {
	name   string
	weight float64
	check  func(req credential.Request) (bool, string)
}

// ChecklistChecker is a deterministic weighted checklist. It performs no
// I/O; each satisfied criterion adds its weight to the confidence and the
// weights sum to 1.0.
type ChecklistChecker struct {
	threshold float64
	criteria  []criterion
}

func NewChecklistChecker(cfg Config) *ChecklistChecker {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	requiredKeys := cfg.RequiredMetadataKeys
	if requiredKeys == nil {
		requiredKeys = credential.RequiredMetadataKeys()
	}

	return &ChecklistChecker{
		threshold: threshold,
		criteria: []criterion{
			{
				name:   "candidate identifier",
				weight: 0.20,
				check: func(req credential.Request) (bool, string) {
					n := len(req.CandidateID.String())
					if n < minCandidateIDLen || n > domain.MaxCandidateIDLen {
						return false, "candidate identifier length out of range"
					}
					return true, ""
				},
			},
			{
				name:   "content hash format",
				weight: 0.25,
				check: func(req credential.Request) (bool, string) {
					if !req.ContentHash.KnownPrefix() {
						return false, "content hash does not match a known address format"
					}
					return true, ""
				},
			},
			{
				name:   "recipient address",
				weight: 0.15,
				check: func(req credential.Request) (bool, string) {
					if !domain.IsValidAddress(req.Recipient.String()) {
						return false, "recipient is not a valid ledger address"
					}
					return true, ""
				},
			},
			{
				name:   "issuer address",
				weight: 0.15,
				check: func(req credential.Request) (bool, string) {
					if !domain.IsValidAddress(req.Issuer.String()) {
						return false, "issuer is not a valid ledger address"
					}
					return true, ""
				},
			},
			{
				name:   "required metadata",
				weight: 0.25,
				check: func(req credential.Request) (bool, string) {
					var missing []string
					for _, key := range requiredKeys {
						if strings.TrimSpace(req.Metadata[key]) == "" {
							missing = append(missing, key)
						}
					}
					if len(missing) > 0 {
						return false, "metadata missing required keys: " + strings.Join(missing, ", ")
					}
					return true, ""
				},
			},
		},
	}
}

// Check scores the request against every criterion. All failed criteria
// are reported, not just the first, so callers get the full diagnostic.
func (c *ChecklistChecker) Check(_ context.Context, req credential.Request) (Result, error) {
	var confidence float64
	var failures []string
	for _, crit := range c.criteria {
		ok, explanation := crit.check(req)
		if ok {
			confidence += crit.weight
			continue
		}
		failures = append(failures, explanation)
	}

	if confidence+thresholdEpsilon >= c.threshold {
		return Result{
			Passed:     true,
			Confidence: confidence,
			Reason:     fmt.Sprintf("content authentic with confidence %.2f", confidence),
		}, nil
	}
	return Result{
		Passed:     false,
		Confidence: confidence,
		Reason:     strings.Join(failures, "; "),
	}, nil
}

var _ Checker = (*ChecklistChecker)(nil)
