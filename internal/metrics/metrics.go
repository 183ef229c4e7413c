// Package metrics exposes poll outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazz-dev/sitewatch/internal/outcome"
)

// Metrics holds the collectors updated by the poll listener.
type Metrics struct {
	registry *prometheus.Registry
	polls    *prometheus.CounterVec
	duration prometheus.Histogram
}

// New creates a private registry with the poll collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitewatch",
			Name:      "polls_total",
			Help:      "Number of polls by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitewatch",
			Name:      "poll_duration_seconds",
			Help:      "Time spent fetching and checking the page.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.polls, m.duration)
	for _, o := range []outcome.Outcome{outcome.Positive, outcome.Negative, outcome.Failed} {
		m.polls.WithLabelValues(string(o))
	}
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe is an outcome listener.
func (m *Metrics) Observe(r outcome.Result) {
	m.polls.WithLabelValues(string(r.Outcome)).Inc()
	m.duration.Observe(r.Duration.Seconds())
}

// TrackScheduling exports enabled as a 0/1 gauge read at scrape time.
func (m *Metrics) TrackScheduling(enabled func() bool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sitewatch",
		Name:      "scheduling_enabled",
		Help:      "1 while automatic polling is active, 0 while suspended after a positive result.",
	}, func() float64 {
		if enabled() {
			return 1
		}
		return 0
	}))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
