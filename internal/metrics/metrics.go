package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for triage
type Metrics struct {
	// Backlog service operations
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Assignment engine
	Recommendations *prometheus.CounterVec
	RosterSize      prometheus.Histogram

	// Model predictions for new tasks
	Predictions *prometheus.CounterVec

	// Backlog shape, refreshed by Stats
	TasksByStatus *prometheus.GaugeVec

	// Single-writer lease
	LeaseConflicts prometheus.Counter

	// HTTP API
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_operations_total",
				Help: "Total number of backlog operations",
			},
			[]string{"operation", "success"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_operation_duration_seconds",
				Help:    "Backlog operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),

		Recommendations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_recommendations_total",
				Help: "Total number of assignee recommendations by deciding rule",
			},
			[]string{"reason"},
		),
		RosterSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "triage_recommendation_roster_size",
				Help:    "Number of candidates considered per recommendation",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
			},
		),

		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_predictions_total",
				Help: "Total number of model predictions by kind and predicted label",
			},
			[]string{"kind", "label"},
		),

		TasksByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "triage_tasks",
				Help: "Number of tasks per status at the last stats refresh",
			},
			[]string{"status"},
		),

		LeaseConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "triage_writer_lease_conflicts_total",
				Help: "Total number of writes refused because another writer held the lease",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "triage_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "route", "code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "triage_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOperation records the outcome and duration of one backlog operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	m.Operations.WithLabelValues(operation, strconv.FormatBool(err == nil)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// HandlerFor returns an HTTP handler for a specific registry
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
