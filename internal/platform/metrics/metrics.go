package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the issuance engine.
type Metrics struct {
	LayerChecks        *prometheus.CounterVec
	VerificationTotal  *prometheus.CounterVec
	EvaluationLatency  prometheus.Histogram
	TokensMinted       prometheus.Counter
	PartialIssuances   prometheus.Counter
	CredentialsRevoked prometheus.Counter
	IssuersRegistered  prometheus.Counter
	ContentRetries     prometheus.Counter
	EndpointLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LayerChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certmint_layer_checks_total",
			Help: "Verification layer checks, labeled by layer and result",
		}, []string{"layer", "result"}),
		VerificationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certmint_verifications_total",
			Help: "Completed verification evaluations, labeled by decision",
		}, []string{"decision"}),
		EvaluationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certmint_evaluation_latency_seconds",
			Help:    "End-to-end latency of verification evaluations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certmint_tokens_minted_total",
			Help: "Total number of credential tokens minted",
		}),
		PartialIssuances: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certmint_partial_issuances_total",
			Help: "Mints whose durable recording step failed and await reconciliation",
		}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certmint_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		IssuersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certmint_issuers_registered_total",
			Help: "First-time issuer registrations (re-adds excluded)",
		}),
		ContentRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certmint_content_retries_total",
			Help: "Retries against the content-addressed store gateway",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certmint_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// ObserveLayerCheck records one layer check outcome.
func (m *Metrics) ObserveLayerCheck(layer string, passed bool) {
	result := "fail"
	if passed {
		result = "pass"
	}
	m.LayerChecks.WithLabelValues(layer, result).Inc()
}

// IncrementVerification records a completed evaluation by decision.
func (m *Metrics) IncrementVerification(decision string) {
	m.VerificationTotal.WithLabelValues(decision).Inc()
}

// ObserveEvaluateLatency records the latency of a full evaluation.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	m.EvaluationLatency.Observe(d.Seconds())
}

func (m *Metrics) IncrementTokensMinted()       { m.TokensMinted.Inc() }
func (m *Metrics) IncrementPartialIssuances()   { m.PartialIssuances.Inc() }
func (m *Metrics) IncrementCredentialsRevoked() { m.CredentialsRevoked.Inc() }
func (m *Metrics) IncrementIssuersRegistered()  { m.IssuersRegistered.Inc() }
func (m *Metrics) IncrementContentRetries()     { m.ContentRetries.Inc() }

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
