package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EstimatesTotal counts smart expiry estimates by method label
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_estimates_total",
			Help: "Total number of smart expiry estimates",
		},
		[]string{"method"},
	)

	// BaseEstimatesTotal counts estimator results by base method
	BaseEstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_base_estimates_total",
			Help: "Total number of base shelf-life estimates",
		},
		[]string{"method"},
	)

	AdjustmentsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_adjustments_recorded_total",
			Help: "Total number of user expiry corrections recorded",
		},
		[]string{"category"},
	)

	// PersistErrors counts swallowed learning store failures by operation
	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_learning_store_errors_total",
			Help: "Total number of learning store load/save failures",
		},
		[]string{"operation"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_learning_imports_total",
			Help: "Total number of learning store imports",
		},
		[]string{"result"},
	)

	CleanupRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expiry_learning_cleanup_removed_total",
			Help: "Total number of aged-out learning entries removed by cleanup",
		},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expiry_learning_backups_total",
			Help: "Total number of learning store backup operations",
		},
		[]string{"operation", "result"},
	)

	// API request metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
