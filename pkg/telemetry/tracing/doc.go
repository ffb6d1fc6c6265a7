// Package tracing wires OpenTelemetry tracing for waybill.
//
// Auto-save cycles and record reloads in the watch command open spans
// through a *Tracer. When telemetry.tracing.enabled is false the tracer is a
// noop and spans cost next to nothing.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
package tracing
