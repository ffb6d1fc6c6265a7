package metrics

import (
	"mercator-hq/waybill/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DraftMetrics tracks the persisted draft store.
//
// Metrics:
//   - waybill_draft_operations_total: store operations by op and outcome
//   - waybill_draft_corruptions_total: corrupted drafts cleared on load
//   - waybill_draft_conflicts_total: conflicting writers detected
//   - waybill_draft_pruned_total: drafts removed by retention
type DraftMetrics struct {
	operationsTotal  *prometheus.CounterVec
	corruptionsTotal prometheus.Counter
	conflictsTotal   prometheus.Counter
	prunedTotal      prometheus.Counter
}

// NewDraftMetrics creates and registers draft metrics.
func NewDraftMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DraftMetrics {
	dm := &DraftMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "draft",
				Name:      "operations_total",
				Help:      "Total number of draft store operations",
			},
			[]string{"op", "outcome"},
		),
		corruptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "draft",
			Name:      "corruptions_total",
			Help:      "Total number of corrupted drafts cleared on load",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "draft",
			Name:      "conflicts_total",
			Help:      "Total number of conflicting writers detected",
		}),
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "draft",
			Name:      "pruned_total",
			Help:      "Total number of drafts removed by retention",
		}),
	}

	registry.MustRegister(dm.operationsTotal, dm.corruptionsTotal, dm.conflictsTotal, dm.prunedTotal)
	return dm
}

// RecordOperation records a store operation.
func (dm *DraftMetrics) RecordOperation(op, outcome string) {
	dm.operationsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordCorruption records a self-healed draft.
func (dm *DraftMetrics) RecordCorruption() {
	dm.corruptionsTotal.Inc()
}

// RecordConflict records a conflicting writer.
func (dm *DraftMetrics) RecordConflict() {
	dm.conflictsTotal.Inc()
}

// RecordPruned adds n pruned drafts.
func (dm *DraftMetrics) RecordPruned(n int) {
	if n > 0 {
		dm.prunedTotal.Add(float64(n))
	}
}
