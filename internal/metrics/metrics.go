// Package metrics records Prometheus metrics for provider operations.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/systmms/secretsadapter/pkg/provider"
)

// Outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeAbsent      = "absent"
	OutcomeUnsupported = "unsupported"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Metrics holds the collectors for provider operations.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "secretsadapter_operations_total",
				Help: "Total number of provider operations by outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "secretsadapter_operation_duration_seconds",
				Help:    "Duration of provider operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"provider", "operation"},
		),
	}
}

// Record counts one operation and observes its duration.
func (m *Metrics) Record(providerName, op, outcome string, elapsed time.Duration) {
	m.operationsTotal.WithLabelValues(providerName, op, outcome).Inc()
	m.operationDuration.WithLabelValues(providerName, op).Observe(elapsed.Seconds())
}

// Outcome classifies the result of an operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, provider.ErrNotSupported):
		return OutcomeUnsupported
	default:
		return OutcomeError
	}
}
