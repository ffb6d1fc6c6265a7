package config

import "time"

// Config is the root configuration structure for Waybill.
// It contains the lookup tables and thresholds used by business-rule validation,
// draft storage backend selection, auto-save timing, and telemetry settings.
type Config struct {
	// Validation contains the lookup tables and thresholds consulted by the
	// business-rule validator (restricted service areas, advisory thresholds).
	Validation ValidationConfig `yaml:"validation"`

	// Drafts contains configuration for persisted draft storage including
	// backend selection, storage quota, and stale-draft retention.
	Drafts DraftsConfig `yaml:"drafts"`

	// AutoSave contains debounce and timeout settings for the auto-save coordinator.
	AutoSave AutoSaveConfig `yaml:"autosave"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ValidationConfig contains business-rule lookup tables and thresholds.
// The rules themselves are compiled in; only their reference data lives here.
type ValidationConfig struct {
	// RestrictedZIPPrefixes lists ZIP code prefixes where pickup and delivery are
	// unavailable. Entries are added to the compiled-in restricted table.
	// Default: [] (compiled-in table only)
	RestrictedZIPPrefixes []string `yaml:"restricted_zip_prefixes"`

	// ValuePerPoundThreshold is the declared value per pound (USD) above which a
	// shipment is flagged for review.
	// Default: 1000
	ValuePerPoundThreshold float64 `yaml:"value_per_pound_threshold"`

	// InsuranceThreshold is the declared value (USD) above which premium
	// handling is recommended.
	// Default: 2500
	InsuranceThreshold float64 `yaml:"insurance_threshold"`

	// PremiumHandling lists special-handling options that satisfy the insurance
	// recommendation.
	// Default: ["insurance", "signature-required", "white-glove"]
	PremiumHandling []string `yaml:"premium_handling"`

	// HazmatKeywords are words that, when present in the contents description,
	// confirm a hazmat declaration.
	// Default: see DefaultHazmatKeywords
	HazmatKeywords []string `yaml:"hazmat_keywords"`
}

// DraftsConfig contains configuration for the persisted draft store.
type DraftsConfig struct {
	// Backend selects the key/value backend.
	// Options: "memory", "sqlite", "badger"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// QuotaBytes caps the total stored bytes. Writes that would exceed it fail
	// with a quota error instead of silently dropping data. Zero disables the quota.
	// Default: 5242880 (5MB)
	QuotaBytes int64 `yaml:"quota_bytes"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Badger contains BadgerDB backend settings.
	Badger BadgerConfig `yaml:"badger"`

	// Retention contains stale-draft pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite draft backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/drafts.db"
	Path string `yaml:"path"`

	// Driver is the database/sql driver name: "sqlite" (pure Go) or
	// "sqlite3" (cgo builds only).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// BadgerConfig contains BadgerDB draft backend configuration.
type BadgerConfig struct {
	// Path is the database directory.
	// Default: "data/drafts"
	Path string `yaml:"path"`

	// InMemory keeps the database in memory only.
	// Default: false
	InMemory bool `yaml:"in_memory"`

	// SyncWrites flushes every write to disk before returning.
	// Default: true
	SyncWrites bool `yaml:"sync_writes"`
}

// RetentionConfig contains stale-draft pruning configuration.
type RetentionConfig struct {
	// MaxAge is how long an untouched draft is kept.
	// Zero disables pruning.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a cron expression for automatic pruning.
	// Empty disables the scheduler.
	// Default: "0 4 * * *" (daily at 4 AM)
	Schedule string `yaml:"schedule"`
}

// AutoSaveConfig contains auto-save coordinator configuration.
type AutoSaveConfig struct {
	// Delay is the quiet period after the last edit before a save runs.
	// Default: 2s
	Delay time.Duration `yaml:"delay"`

	// Timeout bounds each store call made while saving.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables redaction of contact details (emails, phone numbers)
	// that appear in log attributes.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom PII redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom PII redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "waybill"
	Namespace string `yaml:"namespace"`

	// ListenAddress is where long-running commands serve metrics.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "waybill"
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
