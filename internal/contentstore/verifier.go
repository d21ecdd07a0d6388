// Package contentstore verifies that a content hash resolves in the
// external content-addressed store. It distinguishes three outcomes: the
// hash resolves, the hash does not resolve (an expected negative), and
// the retrieval call itself failed (a transport fault to be retried).
package contentstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"certmint/internal/platform/metrics"
	"certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/circuit"
)

// maxRetries bounds transient-failure retries per verification.
const maxRetries = 2

// maxPayloadBytes caps how much of the resolved content is read back.
const maxPayloadBytes = 1 << 20

// Verification is the outcome of one hash lookup. Exists=false with a
// nil error means the hash has no content behind it; that denies the
// request but is not a fault.
type Verification struct {
	Exists  bool
	Payload []byte
}

// Verifier resolves content hashes.
type Verifier interface {
	VerifyHash(ctx context.Context, hash domain.ContentHash) (Verification, error)
}

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GatewayVerifier resolves hashes through an HTTP content gateway. A
// circuit breaker keeps a flapping gateway from absorbing every request's
// full retry budget; once its open interval elapses it lets trial calls
// through again so a recovered gateway closes the circuit.
type GatewayVerifier struct {
	baseURL       string
	client        HTTPDoer
	breaker       *circuit.Breaker
	logger        *slog.Logger
	metrics       *metrics.Metrics
	retryInterval time.Duration
}

// Option configures the GatewayVerifier.
type Option func(*GatewayVerifier)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(v *GatewayVerifier) {
		if doer != nil {
			v.client = doer
		}
	}
}

// WithBreaker overrides the circuit breaker, for tuned thresholds or a
// test clock.
func WithBreaker(b *circuit.Breaker) Option {
	return func(v *GatewayVerifier) {
		if b != nil {
			v.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *GatewayVerifier) { v.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *GatewayVerifier) { v.metrics = m }
}

// WithRetryInterval overrides the initial backoff interval, mainly so
// tests do not sit through real waits.
func WithRetryInterval(d time.Duration) Option {
	return func(v *GatewayVerifier) {
		if d > 0 {
			v.retryInterval = d
		}
	}
}

func NewGatewayVerifier(baseURL string, opts ...Option) *GatewayVerifier {
	v := &GatewayVerifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: circuit.New("content-gateway"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ Verifier = (*GatewayVerifier)(nil)

// VerifyHash resolves the hash through the gateway, retrying transient
// failures with exponential backoff. A 404 from the gateway is returned
// as Exists=false with no error; callers must not conflate it with a
// transport failure.
func (v *GatewayVerifier) VerifyHash(ctx context.Context, hash domain.ContentHash) (Verification, error) {
	if !v.breaker.Allow() {
		return Verification{}, dErrors.New(dErrors.CodeTransport, "content gateway circuit open")
	}

	var result Verification
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 && v.metrics != nil {
			v.metrics.IncrementContentRetries()
		}
		res, err := v.fetch(ctx, hash)
		if err != nil {
			if dErrors.IsRetryable(err) && ctx.Err() == nil {
				if v.logger != nil {
					v.logger.WarnContext(ctx, "content gateway call failed, will retry",
						"hash", hash.String(),
						"attempt", attempt,
						"error", err,
					)
				}
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	if v.retryInterval > 0 {
		expo.InitialInterval = v.retryInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if v.breaker.RecordFailure() && v.logger != nil {
			v.logger.WarnContext(ctx, "content gateway circuit opened")
		}
		return Verification{}, err
	}

	v.breaker.RecordSuccess()
	return result, nil
}

// Health probes gateway reachability for readiness checks. Any HTTP
// answer counts as reachable; resolution failures are a per-hash concern.
func (v *GatewayVerifier) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, v.baseURL, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create gateway request")
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "content gateway unreachable")
	}
	resp.Body.Close()
	return nil
}

func (v *GatewayVerifier) fetch(ctx context.Context, hash domain.ContentHash) (Verification, error) {
	url := fmt.Sprintf("%s/ipfs/%s", v.baseURL, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Verification{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create gateway request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Verification{}, dErrors.Wrap(err, dErrors.CodeTimeout, "content gateway call timed out")
		}
		return Verification{}, dErrors.Wrap(err, dErrors.CodeTransport, "content gateway unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		payload, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
		if err != nil {
			return Verification{}, dErrors.Wrap(err, dErrors.CodeTransport, "failed to read gateway response")
		}
		return Verification{Exists: true, Payload: payload}, nil
	case resp.StatusCode == http.StatusNotFound:
		// Expected negative: nothing is stored under this hash.
		return Verification{Exists: false}, nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Verification{}, dErrors.New(dErrors.CodeTransport,
			fmt.Sprintf("content gateway returned status %d: %s", resp.StatusCode, string(snippet)))
	}
}
