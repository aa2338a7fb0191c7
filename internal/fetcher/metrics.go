package fetcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the fetcher.
type Metrics struct {
	Registry           *prometheus.Registry
	SearchesTotal      *prometheus.CounterVec
	SearchDuration     prometheus.Histogram
	AttemptsTotal      prometheus.Counter
	ProxyFailuresTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubescout_searches_total",
			Help: "Total searches served, labelled by terminal outcome.",
		},
		[]string{"outcome"},
	)
	searchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tubescout_search_duration_seconds",
			Help:    "End-to-end search latency including retries.",
			Buckets: prometheus.DefBuckets,
		},
	)
	attempts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubescout_fetch_attempts_total",
			Help: "Total individual proxy attempts issued.",
		},
	)
	proxyFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubescout_proxy_failures_total",
			Help: "Total attempts reported to the pool as failures.",
		},
	)

	registry.MustRegister(searches, searchDuration, attempts, proxyFailures)

	return &Metrics{
		Registry:           registry,
		SearchesTotal:      searches,
		SearchDuration:     searchDuration,
		AttemptsTotal:      attempts,
		ProxyFailuresTotal: proxyFailures,
	}
}

// IncSearch increments the searches counter for an outcome.
func (m *Metrics) IncSearch(outcome Outcome) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome.String()).Inc()
}

// ObserveSearchDuration records a completed search duration.
func (m *Metrics) ObserveSearchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(d.Seconds())
}

// IncAttempt increments the per-proxy attempt counter.
func (m *Metrics) IncAttempt() {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
}

// IncProxyFailure increments the reported proxy failure counter.
func (m *Metrics) IncProxyFailure() {
	if m == nil {
		return
	}
	m.ProxyFailuresTotal.Inc()
}
