package bearerauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lpforge/bearerauth/core"
	"github.com/lpforge/bearerauth/jwks"
)

const metricsNamespace = "bearerauth"

// PrometheusMetrics records verification and JWKS fetch metrics. It
// implements core.Metrics and jwks.Metrics, so one instance serves both the
// middleware (WithMetrics) and the key cache (jwks.WithMetrics).
type PrometheusMetrics struct {
	verifications        *prometheus.CounterVec
	verificationDuration prometheus.Histogram
	fetches              *prometheus.CounterVec
	fetchDuration        prometheus.Histogram
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		return nil, errors.New("prometheus registerer cannot be nil")
	}

	m := &PrometheusMetrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "verifications_total",
			Help:      "Bearer token verifications by result and rejection reason.",
		}, []string{"result", "reason"}),
		verificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "verification_duration_seconds",
			Help:      "Time spent verifying a bearer token, including any key fetch.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 9),
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jwks_fetches_total",
			Help:      "JWKS fetches from the identity provider by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "jwks_fetch_duration_seconds",
			Help:      "Duration of JWKS fetches from the identity provider.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.verifications, m.verificationDuration, m.fetches, m.fetchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return m, nil
}

// VerificationCompleted implements core.Metrics.
func (m *PrometheusMetrics) VerificationCompleted(outcome core.Outcome, duration time.Duration) {
	result, reason := "authenticated", ""
	if !outcome.OK() {
		result, reason = "rejected", outcome.Reason().String()
	}
	m.verifications.WithLabelValues(result, reason).Inc()
	m.verificationDuration.Observe(duration.Seconds())
}

// FetchCompleted implements jwks.Metrics.
func (m *PrometheusMetrics) FetchCompleted(err error, duration time.Duration) {
	result := "success"
	var fetchErr *jwks.FetchError
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &fetchErr) && fetchErr.Timeout():
		result = "timeout"
	case errors.Is(err, jwks.ErrNoUsableKeys):
		result = "no_keys"
	default:
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}
