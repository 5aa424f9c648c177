package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for search operations. Operators
// distinguish invalid requests, store failures, and empty-but-successful
// results here; end users only ever see a suggestion list or an empty list.
type Metrics struct {
	registry *prometheus.Registry

	SuggestTotal    *prometheus.CounterVec
	SuggestDuration prometheus.Histogram
	CompareTotal    *prometheus.CounterVec
}

// Suggest outcome label values.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// NewMetrics creates and registers the server's metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		SuggestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grokiwiki_suggest_requests_total",
			Help: "Suggest requests by outcome.",
		}, []string{"outcome"}),
		SuggestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grokiwiki_suggest_duration_seconds",
			Help:    "Slug index search latency.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		CompareTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grokiwiki_compare_requests_total",
			Help: "Compare requests by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.SuggestTotal, m.SuggestDuration, m.CompareTotal)
	return m
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
