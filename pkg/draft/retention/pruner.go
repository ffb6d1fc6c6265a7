package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
)

// Pruner removes drafts that have not been saved within the retention period.
type Pruner struct {
	store     *draft.Store
	config    config.RetentionConfig
	logger    *slog.Logger
	now       func() time.Time
	scheduler *Scheduler
}

// NewPruner creates a pruner over store.
func NewPruner(store *draft.Store, cfg config.RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pruner{
		store:  store,
		config: cfg,
		logger: logger.With("component", "draft.retention"),
		now:    time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Scheduler returns the pruner's cron scheduler.
func (p *Pruner) Scheduler() *Scheduler {
	return p.scheduler
}

// Prune deletes drafts older than MaxAge and returns how many were removed.
// A zero MaxAge keeps drafts forever.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.config.MaxAge <= 0 {
		p.logger.Debug("retention disabled, nothing pruned")
		return 0, nil
	}

	cutoff := p.now().Add(-p.config.MaxAge)
	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("prune by age failed: %w", err)
	}

	if deleted == 0 {
		p.logger.Debug("no drafts pruned", "max_age", p.config.MaxAge)
	} else {
		p.logger.Info("pruned stale drafts",
			"deleted_count", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}
