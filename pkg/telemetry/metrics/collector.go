package metrics

import (
	"time"

	"mercator-hq/waybill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric Waybill exports. Components receive a
// *Collector and call its Record methods; a nil *Collector or a disabled config
// turns every call into a no-op, so packages can be used without metrics wiring.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	validationMetrics *ValidationMetrics
	draftMetrics      *DraftMetrics
	autoSaveMetrics   *AutoSaveMetrics
}

// NewCollector creates a collector registered on registry. If registry is nil a
// fresh registry is created, never the process-wide default one.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "waybill"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		validationMetrics: NewValidationMetrics(cfg, registry),
		draftMetrics:      NewDraftMetrics(cfg, registry),
		autoSaveMetrics:   NewAutoSaveMetrics(cfg, registry),
	}
}

// Registry returns the registry the collector's metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordValidation records one validation pass.
//
// Parameters:
//   - kind: "all" or "field"
//   - outcome: "valid", "invalid" or "fault"
//   - duration: time spent in the pass
func (c *Collector) RecordValidation(kind, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.validationMetrics.RecordPass(kind, outcome, duration)
}

// RecordValidationFault records a rule that panicked during a pass.
func (c *Collector) RecordValidationFault(rule string) {
	if !c.enabled() {
		return
	}
	c.validationMetrics.RecordFault(rule)
}

// RecordDraftOperation records a draft store operation.
//
// Parameters:
//   - op: "save", "load", "clear", "conflict_check" or "prune"
//   - outcome: "ok", "miss", "quota_exceeded" or "error"
func (c *Collector) RecordDraftOperation(op, outcome string) {
	if !c.enabled() {
		return
	}
	c.draftMetrics.RecordOperation(op, outcome)
}

// RecordDraftCorruption records a corrupted draft that was cleared on load.
func (c *Collector) RecordDraftCorruption() {
	if !c.enabled() {
		return
	}
	c.draftMetrics.RecordCorruption()
}

// RecordDraftConflict records a detected conflicting writer.
func (c *Collector) RecordDraftConflict() {
	if !c.enabled() {
		return
	}
	c.draftMetrics.RecordConflict()
}

// RecordDraftsPruned records drafts deleted by retention.
func (c *Collector) RecordDraftsPruned(n int) {
	if !c.enabled() {
		return
	}
	c.draftMetrics.RecordPruned(n)
}

// RecordAutoSave records the outcome of one auto-save request.
//
// Parameters:
//   - outcome: saved, dropped, conflict, superseded, canceled, quota_exceeded, timeout, error
func (c *Collector) RecordAutoSave(outcome string) {
	if !c.enabled() {
		return
	}
	c.autoSaveMetrics.RecordOutcome(outcome)
}

// ObserveAutoSaveDuration records the time a Running cycle spent in the store.
func (c *Collector) ObserveAutoSaveDuration(d time.Duration) {
	if !c.enabled() {
		return
	}
	c.autoSaveMetrics.ObserveDuration(d)
}

// SetAutoSaveRunning sets the in-flight save gauge.
func (c *Collector) SetAutoSaveRunning(running bool) {
	if !c.enabled() {
		return
	}
	c.autoSaveMetrics.SetRunning(running)
}
