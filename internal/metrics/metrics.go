// Package metrics exposes Prometheus collectors for question selection.
package metrics

import (
	"net/http"
	"time"

	"adaptivequiz/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Selection holds the engine collectors on a private registry
type Selection struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewSelection creates and registers the collectors
func NewSelection() *Selection {
	s := &Selection{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_selection_total",
				Help: "Question selections by source and fallback reason",
			},
			[]string{"source", "reason"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quiz_selection_duration_seconds",
				Help:    "Time to produce a selection",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 7, 10},
			},
			[]string{"source"},
		),
	}
	s.registry.MustRegister(s.outcomes, s.latency)
	return s
}

// ObserveSelection records one finished selection
func (s *Selection) ObserveSelection(source model.SelectionSource, reason string, elapsed time.Duration) {
	s.outcomes.WithLabelValues(string(source), reason).Inc()
	s.latency.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (s *Selection) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
