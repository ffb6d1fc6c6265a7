package draft

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/waybill/pkg/config"
)

// KV is the key/value capability a Store persists through. Implementations
// must be safe for concurrent use.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put writes all entries atomically. When the write would exceed the
	// backend's quota nothing is written and the error wraps ErrQuotaExceeded.
	Put(ctx context.Context, entries map[string]string) error

	// Delete removes keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Keys lists the keys that start with prefix, in sorted order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend.
	Close() error
}

// Open creates the KV backend selected by cfg.Backend.
func Open(cfg config.DraftsConfig, logger *slog.Logger) (KV, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryKV(cfg.QuotaBytes), nil
	case "sqlite", "":
		return NewSQLiteKV(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			Driver:      cfg.SQLite.Driver,
			BusyTimeout: cfg.SQLite.BusyTimeout,
			QuotaBytes:  cfg.QuotaBytes,
			Logger:      logger,
		})
	case "badger":
		return NewBadgerKV(BadgerConfig{
			Path:       cfg.Badger.Path,
			InMemory:   cfg.Badger.InMemory,
			SyncWrites: cfg.Badger.SyncWrites,
			QuotaBytes: cfg.QuotaBytes,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown draft backend %q", cfg.Backend)
	}
}

// entrySize is the number of bytes a key/value pair counts against a quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
