package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes YAML configuration bytes, applies defaults and validates the
// result. name is used in error messages only.
func Parse(data []byte, name string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", name, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention WAYBILL_SECTION_FIELD (e.g., WAYBILL_DRAFTS_BACKEND).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format WAYBILL_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Validation overrides
	if val := os.Getenv("WAYBILL_VALIDATION_RESTRICTED_ZIP_PREFIXES"); val != "" {
		cfg.Validation.RestrictedZIPPrefixes = splitList(val)
	}
	if val := os.Getenv("WAYBILL_VALIDATION_VALUE_PER_POUND_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Validation.ValuePerPoundThreshold = f
		}
	}
	if val := os.Getenv("WAYBILL_VALIDATION_INSURANCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Validation.InsuranceThreshold = f
		}
	}

	// Draft overrides
	if val := os.Getenv("WAYBILL_DRAFTS_BACKEND"); val != "" {
		cfg.Drafts.Backend = val
	}
	if val := os.Getenv("WAYBILL_DRAFTS_QUOTA_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Drafts.QuotaBytes = i
		}
	}
	if val := os.Getenv("WAYBILL_DRAFTS_SQLITE_PATH"); val != "" {
		cfg.Drafts.SQLite.Path = val
	}
	if val := os.Getenv("WAYBILL_DRAFTS_SQLITE_DRIVER"); val != "" {
		cfg.Drafts.SQLite.Driver = val
	}
	if val := os.Getenv("WAYBILL_DRAFTS_BADGER_PATH"); val != "" {
		cfg.Drafts.Badger.Path = val
	}
	if val := os.Getenv("WAYBILL_DRAFTS_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Drafts.Retention.MaxAge = d
		}
	}
	if val := os.Getenv("WAYBILL_DRAFTS_RETENTION_SCHEDULE"); val != "" {
		cfg.Drafts.Retention.Schedule = val
	}

	// Auto-save overrides
	if val := os.Getenv("WAYBILL_AUTOSAVE_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.AutoSave.Delay = d
		}
	}
	if val := os.Getenv("WAYBILL_AUTOSAVE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.AutoSave.Timeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("WAYBILL_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_LOGGING_REDACT_PII"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.RedactPII = b
		}
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("WAYBILL_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
