// Package metrics exposes prometheus collectors for document operations.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "easydoc"
	subsystem = "document"

	// Result labels.
	ResultOK      = "ok"
	ResultTimeout = "timeout"
	ResultError   = "error"
)

var (
	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Document operations by operation and result.",
		},
		[]string{"op", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of successful document operations, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	lockWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for exclusive access.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"op"},
	)
)

// ObserveLockWait records how long op waited for the document lock.
func ObserveLockWait(op string, waited time.Duration) {
	lockWait.WithLabelValues(op).Observe(waited.Seconds())
}

// ObserveOperation records a finished op. timeout marks errors that are lock
// acquisition timeouts; they never entered the critical section.
func ObserveOperation(op string, took time.Duration, err error, timeout error) {
	result := ResultOK
	switch {
	case err == nil:
		operationDuration.WithLabelValues(op).Observe(took.Seconds())
	case timeout != nil && errors.Is(err, timeout):
		result = ResultTimeout
	default:
		result = ResultError
	}
	operations.WithLabelValues(op, result).Inc()
}

// Operations returns the counter, for tests and custom exporters.
func Operations() *prometheus.CounterVec { return operations }
