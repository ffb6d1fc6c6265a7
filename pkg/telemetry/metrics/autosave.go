package metrics

import (
	"time"

	"mercator-hq/waybill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AutoSaveMetrics tracks the auto-save coordinator.
//
// Metrics:
//   - waybill_autosave_requests_total: scheduled saves by final outcome
//   - waybill_autosave_duration_seconds: time a Running cycle spent in the store
//   - waybill_autosave_running: 1 while a save is in flight
type AutoSaveMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	running       prometheus.Gauge
}

// NewAutoSaveMetrics creates and registers auto-save metrics.
func NewAutoSaveMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AutoSaveMetrics {
	am := &AutoSaveMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "autosave",
				Name:      "requests_total",
				Help:      "Total number of auto-save requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "autosave",
			Name:      "duration_seconds",
			Help:      "Duration of auto-save store cycles in seconds",
			Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2, 10},
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "autosave",
			Name:      "running",
			Help:      "Whether an auto-save is currently in flight (1) or not (0)",
		}),
	}

	registry.MustRegister(am.requestsTotal, am.duration, am.running)
	return am
}

// RecordOutcome records the final outcome of a request.
func (am *AutoSaveMetrics) RecordOutcome(outcome string) {
	am.requestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records a Running cycle's duration.
func (am *AutoSaveMetrics) ObserveDuration(d time.Duration) {
	am.duration.Observe(d.Seconds())
}

// SetRunning sets the in-flight gauge.
func (am *AutoSaveMetrics) SetRunning(running bool) {
	if running {
		am.running.Set(1)
		return
	}
	am.running.Set(0)
}
