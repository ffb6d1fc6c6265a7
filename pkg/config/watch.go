package config

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/waybill/pkg/filewatch"
)

// Watch reloads the configuration file at path whenever it changes and passes
// each successfully loaded configuration to onReload. Invalid edits are logged
// and ignored so a typo never replaces a working configuration.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, logger *slog.Logger, onReload func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "config.watch")

	w, err := filewatch.New(path, 250*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	return w.Watch(ctx, func() error {
		cfg, err := ReloadConfig(path)
		if err != nil {
			return err
		}
		logger.Info("configuration reloaded", "path", path)
		onReload(cfg)
		return nil
	})
}
