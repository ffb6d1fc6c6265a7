package config

import "time"

// Default values for configuration fields.
const (
	// Validation defaults
	DefaultValuePerPoundThreshold = 1000.0
	DefaultInsuranceThreshold     = 2500.0

	// Draft defaults
	DefaultDraftsBackend     = "sqlite"
	DefaultDraftsQuotaBytes  = int64(5 * 1024 * 1024)
	DefaultSQLitePath        = "data/drafts.db"
	DefaultSQLiteDriver      = "sqlite"
	DefaultSQLiteBusyTimeout = 5 * time.Second
	DefaultBadgerPath        = "data/drafts"
	DefaultBadgerSyncWrites  = true
	DefaultRetentionMaxAge   = 30 * 24 * time.Hour
	DefaultRetentionSchedule = "0 4 * * *"

	// Auto-save defaults
	DefaultAutoSaveDelay   = 2 * time.Second
	DefaultAutoSaveTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "json"
	DefaultLogRedactPII         = true
	DefaultMetricsEnabled       = true
	DefaultMetricsNamespace     = "waybill"
	DefaultMetricsListenAddress = "127.0.0.1:9464"
	DefaultMetricsPath          = "/metrics"
	DefaultTracingServiceName   = "waybill"
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingTimeout       = 10 * time.Second
	DefaultTracingSampler       = "always"
	DefaultTracingSampleRatio   = 1.0
)

// DefaultPremiumHandling lists the handling options that satisfy the insurance
// recommendation.
var DefaultPremiumHandling = []string{"insurance", "signature-required", "white-glove"}

// DefaultHazmatKeywords are the words accepted as confirming a hazmat declaration.
var DefaultHazmatKeywords = []string{
	"hazmat", "hazardous", "flammable", "corrosive", "explosive", "toxic",
	"lithium", "battery", "batteries", "aerosol", "oxidizer", "radioactive",
	"dangerous goods", "un",
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
// Fields that were set explicitly are left untouched.
func ApplyDefaults(cfg *Config) {
	applyValidationDefaults(&cfg.Validation)
	applyDraftsDefaults(&cfg.Drafts)
	applyAutoSaveDefaults(&cfg.AutoSave)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyValidationDefaults(cfg *ValidationConfig) {
	if cfg.ValuePerPoundThreshold == 0 {
		cfg.ValuePerPoundThreshold = DefaultValuePerPoundThreshold
	}
	if cfg.InsuranceThreshold == 0 {
		cfg.InsuranceThreshold = DefaultInsuranceThreshold
	}
	if len(cfg.PremiumHandling) == 0 {
		cfg.PremiumHandling = append([]string(nil), DefaultPremiumHandling...)
	}
	if len(cfg.HazmatKeywords) == 0 {
		cfg.HazmatKeywords = append([]string(nil), DefaultHazmatKeywords...)
	}
}

func applyDraftsDefaults(cfg *DraftsConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultDraftsBackend
	}
	if cfg.QuotaBytes == 0 {
		cfg.QuotaBytes = DefaultDraftsQuotaBytes
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.Driver == "" {
		cfg.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Badger.Path == "" {
		cfg.Badger.Path = DefaultBadgerPath
		cfg.Badger.SyncWrites = DefaultBadgerSyncWrites
	}
	if cfg.Retention.MaxAge == 0 {
		cfg.Retention.MaxAge = DefaultRetentionMaxAge
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}
}

func applyAutoSaveDefaults(cfg *AutoSaveConfig) {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultAutoSaveDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAutoSaveTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
		// Redaction defaults on with the rest of the logging block.
		cfg.Logging.RedactPII = DefaultLogRedactPII
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
		cfg.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
}
