package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/wastewise/internal/assess"
	"github.com/sells-group/wastewise/internal/model"
)

// Metrics are the service counters exposed on /metrics.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	failures    prometheus.Counter
	retrains    *prometheus.CounterVec
}

// NewMetrics registers the service counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastewise",
			Name:      "predictions_total",
			Help:      "Waste predictions served, by estimate source.",
		}, []string{"source"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastewise",
			Name:      "decisions_total",
			Help:      "Recommended actions, by action.",
		}, []string{"action"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wastewise",
			Name:      "prediction_failures_total",
			Help:      "Inventory items that could not be assessed.",
		}),
		retrains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wastewise",
			Name:      "retrains_total",
			Help:      "Retrain requests, by outcome.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.predictions, m.decisions, m.failures, m.retrains)
	return m
}

func (m *Metrics) observeResults(results []assess.Result) {
	for _, r := range results {
		if r.Failed() {
			m.failures.Inc()
			continue
		}
		m.predictions.WithLabelValues(string(r.Source)).Inc()
		m.decisions.WithLabelValues(string(r.RecommendedAction)).Inc()
	}
}

func (m *Metrics) observeRetrain(status model.TrainStatus) {
	m.retrains.WithLabelValues(string(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
