package metrics

import (
	"errors"
	"time"

	"github.com/nbroyles/nbkv/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the "result" label
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the Prometheus collectors for storage operations
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	pairs      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. labels are attached
// to every series (e.g. the store id)
func NewMetrics(reg prometheus.Registerer, labels prometheus.Labels) *Metrics {
	factory := promauto.With(prometheus.WrapRegistererWith(labels, reg))

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nbkv",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Total number of storage operations by result",
			},
			[]string{"operation", "result"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nbkv",
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Duration of storage operations in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
			},
			[]string{"operation"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nbkv",
				Subsystem: "storage",
				Name:      "errors_total",
				Help:      "Total number of storage errors by kind",
			},
			[]string{"operation", "kind"},
		),
		pairs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nbkv",
				Subsystem: "storage",
				Name:      "enumerated_pairs_total",
				Help:      "Total number of pairs returned by table enumerations",
			},
			[]string{"operation"},
		),
	}
}

// RecordStorageMetrics records the outcome of one operation
func (m *Metrics) RecordStorageMetrics(operation string, result string, duration time.Duration, err error) {
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		m.operations.WithLabelValues(operation, ResultError).Inc()
		m.errors.WithLabelValues(operation, errorKind(err)).Inc()
		return
	}

	m.operations.WithLabelValues(operation, result).Inc()
}

// RecordEnumeration counts pairs handed out by GetAll/GetIter
func (m *Metrics) RecordEnumeration(operation string, pairs int) {
	m.pairs.WithLabelValues(operation).Add(float64(pairs))
}

func errorKind(err error) string {
	var storageErr *storage.Error
	if errors.As(err, &storageErr) {
		return string(storageErr.Kind)
	}
	return "UNKNOWN"
}

func result(found bool) string {
	if found {
		return ResultHit
	}
	return ResultMiss
}
