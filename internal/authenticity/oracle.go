package authenticity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"certmint/internal/credential"
	dErrors "certmint/pkg/domain-errors"
)

// oracleMaxRetries bounds transient-failure retries per check.
const oracleMaxRetries = 2

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Oracle delegates authenticity scoring to a remote service. Using it
// makes this layer fallible over the network, so callers must treat its
// errors under the same transport policy as the content store.
type Oracle struct {
	baseURL string
	client  HTTPDoer
}

// OracleOption configures the Oracle.
type OracleOption func(*Oracle)

// WithOracleHTTPClient overrides the HTTP client, mainly for tests.
func WithOracleHTTPClient(doer HTTPDoer) OracleOption {
	return func(o *Oracle) {
		if doer != nil {
			o.client = doer
		}
	}
}

func NewOracle(baseURL string, opts ...OracleOption) *Oracle {
	o := &Oracle{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ Checker = (*Oracle)(nil)

type oracleRequest struct {
	CandidateID string            `json:"candidate_id"`
	Recipient   string            `json:"recipient"`
	Issuer      string            `json:"issuer"`
	ContentHash string            `json:"content_hash"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type oracleResponse struct {
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Check posts the request to the oracle, retrying transient failures with
// exponential backoff. A deny from the oracle is a normal Result, not an
// error; only transport-level failures surface as errors.
func (o *Oracle) Check(ctx context.Context, req credential.Request) (Result, error) {
	body, err := json.Marshal(oracleRequest{
		CandidateID: req.CandidateID.String(),
		Recipient:   req.Recipient.String(),
		Issuer:      req.Issuer.String(),
		ContentHash: req.ContentHash.String(),
		Metadata:    req.Metadata,
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal oracle request")
	}

	var result Result
	operation := func() error {
		res, err := o.post(ctx, body)
		if err != nil {
			if dErrors.IsRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), oracleMaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (o *Oracle) post(ctx context.Context, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/authenticity", bytes.NewReader(body))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create oracle request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, dErrors.Wrap(err, dErrors.CodeTimeout, "oracle call timed out")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "oracle unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Result{}, dErrors.New(dErrors.CodeTransport,
			fmt.Sprintf("oracle check failed: status %d: %s", resp.StatusCode, string(snippet)))
	}

	var out oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeTransport, "malformed oracle response")
	}
	return Result{Passed: out.Passed, Confidence: out.Confidence, Reason: out.Reason}, nil
}
