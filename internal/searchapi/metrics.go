package searchapi

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the search-api counters and histograms named in §4.J's
// stats operation, registered against a private registry (rather than
// the global default) so a process hosting several project Handlers
// doesn't collide on metric names. Grounded on the counter/histogram
// naming convention in the pack's pkg/metrics package. searchesTotal is
// additionally tracked as a plain atomic counter since the stats
// operation needs to read its current value back out, and the
// prometheus client library doesn't expose that for a bare Counter
// without decoding its wire-format Metric.
type Metrics struct {
	registry       *prometheus.Registry
	searchesTotal  prometheus.Counter
	searchFailures prometheus.Counter
	searchDuration prometheus.Histogram
	searchesCount  atomic.Int64
}

// NewMetrics builds a ready-to-use, privately-registered Metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexfoundry_search_requests_total",
			Help: "Total number of search operations served.",
		}),
		searchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexfoundry_search_failures_total",
			Help: "Total number of search operations that returned an error.",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indexfoundry_search_duration_seconds",
			Help:    "Search operation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.searchesTotal, m.searchFailures, m.searchDuration)
	return m
}

// ObserveSearchStart begins timing a search call; pair with
// ObserveSearchDone.
func (m *Metrics) ObserveSearchStart() time.Time {
	return time.Now()
}

// ObserveSearchDone records a completed search, incrementing the
// failure counter when err is non-nil.
func (m *Metrics) ObserveSearchDone(start time.Time, err error) {
	m.searchesTotal.Inc()
	m.searchesCount.Add(1)
	m.searchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.searchFailures.Inc()
	}
}

// SearchesTotal returns the current count for the stats operation.
func (m *Metrics) SearchesTotal() int64 {
	return m.searchesCount.Load()
}

// Handler exposes the registry at a /metrics-shaped endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
