package contentstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmint/pkg/domain"
	dErrors "certmint/pkg/domain-errors"
	"certmint/pkg/platform/circuit"
)

const testHash = domain.ContentHash("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")

func TestVerifyHashResolves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ipfs/"+testHash.String(), r.URL.Path)
		w.Write([]byte("certificate payload"))
	}))
	defer srv.Close()

	verifier := NewGatewayVerifier(srv.URL)
	res, err := verifier.VerifyHash(context.Background(), testHash)
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, []byte("certificate payload"), res.Payload)
}

func TestVerifyHashNotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	verifier := NewGatewayVerifier(srv.URL)
	res, err := verifier.VerifyHash(context.Background(), testHash)
	require.NoError(t, err, "a hash with no content behind it is an expected negative")
	assert.False(t, res.Exists)
	assert.Nil(t, res.Payload)
}

func TestVerifyHashRetriesThenSettles(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	verifier := NewGatewayVerifier(srv.URL, WithRetryInterval(time.Millisecond))
	res, err := verifier.VerifyHash(context.Background(), testHash)
	require.NoError(t, err, "retries must settle on the final outcome, not the transient fault")
	assert.False(t, res.Exists)
	assert.Equal(t, int32(3), calls.Load())
}

func TestVerifyHashExhaustedRetriesSurfaceTransport(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	verifier := NewGatewayVerifier(srv.URL, WithRetryInterval(time.Millisecond))
	_, err := verifier.VerifyHash(context.Background(), testHash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus bounded retries")
}

func TestVerifyHashCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	verifier := NewGatewayVerifier(srv.URL, WithRetryInterval(time.Millisecond))
	for i := 0; i < 5; i++ {
		_, err := verifier.VerifyHash(context.Background(), testHash)
		require.Error(t, err)
	}
	before := calls.Load()

	// Breaker is open: the next verification fails without touching the gateway.
	_, err := verifier.VerifyHash(context.Background(), testHash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
	assert.Equal(t, before, calls.Load())
}

func TestVerifyHashRecoversAfterOpenInterval(t *testing.T) {
	var calls atomic.Int32
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("certificate payload"))
	}))
	defer srv.Close()

	current := time.Now()
	breaker := circuit.New("content-gateway",
		circuit.WithFailureThreshold(1),
		circuit.WithSuccessThreshold(1),
		circuit.WithOpenInterval(time.Minute),
		circuit.WithClock(func() time.Time { return current }),
	)
	verifier := NewGatewayVerifier(srv.URL,
		WithRetryInterval(time.Millisecond),
		WithBreaker(breaker),
	)

	_, err := verifier.VerifyHash(context.Background(), testHash)
	require.Error(t, err)
	require.Equal(t, circuit.StateOpen, breaker.State())

	// The gateway comes back, but the interval has not elapsed yet.
	healthy.Store(true)
	before := calls.Load()
	_, err = verifier.VerifyHash(context.Background(), testHash)
	require.Error(t, err)
	assert.Equal(t, before, calls.Load(), "open circuit must not reach the gateway")

	// Once the interval elapses the trial call goes through and closes the circuit.
	current = current.Add(2 * time.Minute)
	res, err := verifier.VerifyHash(context.Background(), testHash)
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Greater(t, calls.Load(), before, "trial call must reach the recovered gateway")
	assert.Equal(t, circuit.StateClosed, breaker.State())

	res, err = verifier.VerifyHash(context.Background(), testHash)
	require.NoError(t, err)
	assert.True(t, res.Exists)
}
