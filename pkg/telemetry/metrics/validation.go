package metrics

import (
	"time"

	"mercator-hq/waybill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ValidationMetrics tracks validation engine passes.
//
// Metrics:
//   - waybill_validation_passes_total: passes by kind and outcome
//   - waybill_validation_duration_seconds: pass duration histogram
//   - waybill_validation_faults_total: rules that panicked, by rule
type ValidationMetrics struct {
	passesTotal *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	faultsTotal *prometheus.CounterVec
}

// NewValidationMetrics creates and registers validation metrics.
func NewValidationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	vm := &ValidationMetrics{
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "passes_total",
				Help:      "Total number of validation passes",
			},
			[]string{"kind", "outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "duration_seconds",
				Help:      "Duration of validation passes in seconds",
				// Passes are in-memory; 10µs to ~40ms.
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 7),
			},
			[]string{"kind"},
		),

		faultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "validation",
				Name:      "faults_total",
				Help:      "Total number of rules that panicked during validation",
			},
			[]string{"rule"},
		),
	}

	registry.MustRegister(vm.passesTotal, vm.duration, vm.faultsTotal)
	return vm
}

// RecordPass records one validation pass.
func (vm *ValidationMetrics) RecordPass(kind, outcome string, duration time.Duration) {
	vm.passesTotal.WithLabelValues(kind, outcome).Inc()
	vm.duration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordFault records a panicking rule.
func (vm *ValidationMetrics) RecordFault(rule string) {
	vm.faultsTotal.WithLabelValues(rule).Inc()
}
