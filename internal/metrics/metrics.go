// Package metrics holds the Prometheus instruments of the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "optionsgateway"

// Outcome values of upstream_requests_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Result values of cache_lookups_total.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics records upstream traffic, cache efficiency and fallbacks.
// All methods are safe on a nil receiver.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Fallbacks        *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
}

// New creates the instruments and registers them on reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider calls by outcome",
		}, []string{"provider", "endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4.5, 5},
		}, []string{"provider", "endpoint"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Requests answered with synthetic data after an upstream failure",
		}, []string{"endpoint", "error_type"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"endpoint", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.UpstreamRequests, m.UpstreamDuration, m.Fallbacks, m.CacheLookups)
	}
	return m
}

func (m *Metrics) ObserveUpstream(providerID, endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(providerID, endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(providerID, endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveFallback(endpoint, errorType string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(endpoint, errorType).Inc()
}

func (m *Metrics) ObserveCache(endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheLookups.WithLabelValues(endpoint, result).Inc()
}
