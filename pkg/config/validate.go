package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "drafts.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateValidation(&cfg.Validation)...)
	errs = append(errs, validateDrafts(&cfg.Drafts)...)
	errs = append(errs, validateAutoSave(&cfg.AutoSave)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateValidation(cfg *ValidationConfig) []FieldError {
	var errs []FieldError

	for i, prefix := range cfg.RestrictedZIPPrefixes {
		if prefix == "" || len(prefix) > 5 || strings.Trim(prefix, "0123456789") != "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("validation.restricted_zip_prefixes[%d]", i),
				Message: fmt.Sprintf("must be 1-5 digits, got %q", prefix),
			})
		}
	}
	if cfg.ValuePerPoundThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "validation.value_per_pound_threshold",
			Message: "must not be negative",
		})
	}
	if cfg.InsuranceThreshold < 0 {
		errs = append(errs, FieldError{
			Field:   "validation.insurance_threshold",
			Message: "must not be negative",
		})
	}

	return errs
}

func validateDrafts(cfg *DraftsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "drafts.sqlite.path", Message: "field is required for the sqlite backend"})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "drafts.sqlite.driver",
				Message: fmt.Sprintf("must be \"sqlite\" or \"sqlite3\", got %q", cfg.SQLite.Driver),
			})
		}
	case "badger":
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			errs = append(errs, FieldError{Field: "drafts.badger.path", Message: "field is required unless in_memory is set"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "drafts.backend",
			Message: fmt.Sprintf("must be one of memory, sqlite, badger, got %q", cfg.Backend),
		})
	}

	if cfg.QuotaBytes < 0 {
		errs = append(errs, FieldError{Field: "drafts.quota_bytes", Message: "must not be negative"})
	}
	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "drafts.retention.max_age", Message: "must not be negative"})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "drafts.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateAutoSave(cfg *AutoSaveConfig) []FieldError {
	var errs []FieldError

	if cfg.Delay < 0 {
		errs = append(errs, FieldError{Field: "autosave.delay", Message: "must not be negative"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "autosave.timeout", Message: "must be positive"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error, got %q", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of json, text, got %q", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "field is required",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		})
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("must be one of always, never, ratio, got %q", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "must be between 0 and 1",
		})
	}

	return errs
}
