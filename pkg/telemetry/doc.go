// Package telemetry groups the observability packages used by waybill.
//
// # Components
//
//   - logging: slog loggers with draft key and writer context and PII redaction
//   - metrics: Prometheus collectors for validation, drafts and auto-save
//   - tracing: OpenTelemetry spans for auto-save cycles and watched reloads
//   - health: liveness and readiness probes for the watch command
//
// # Usage
//
//	cfg := config.GetConfig()
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
// # PII Protection
//
// Contact details are redacted from log attributes by default:
//
//   - Emails and phone numbers inside any string value
//   - Values of keys such as email, phone and contact_name
//
// Custom redaction patterns can be configured.
package telemetry
