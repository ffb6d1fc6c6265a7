// Package config provides configuration management for Waybill.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("waybill.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("waybill.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WAYBILL_SECTION_FIELD:
//
//   - WAYBILL_DRAFTS_BACKEND overrides drafts.backend
//   - WAYBILL_AUTOSAVE_DELAY overrides autosave.delay
//   - WAYBILL_VALIDATION_RESTRICTED_ZIP_PREFIXES overrides
//     validation.restricted_zip_prefixes (comma separated)
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watch reloads the file whenever it changes on disk and hands the new
// configuration to a callback. Only validation lookup tables are meant to be
// swapped at runtime; storage backends are fixed for the life of the process.
//
// # Example Configuration
//
//	validation:
//	  restricted_zip_prefixes: ["995", "996"]
//	  insurance_threshold: 5000
//
//	drafts:
//	  backend: sqlite
//	  sqlite:
//	    path: data/drafts.db
//	  retention:
//	    max_age: 720h
//	    schedule: "0 4 * * *"
//
//	autosave:
//	  delay: 2s
//	  timeout: 10s
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sampler: ratio
//	    sample_ratio: 0.1
package config
