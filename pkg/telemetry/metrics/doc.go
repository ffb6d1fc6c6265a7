// Package metrics exposes Prometheus metrics for the validation engine, the
// draft store and the auto-save coordinator.
//
// All metrics are registered on a registry owned by the Collector rather than
// the global default, so tests and multiple collectors in one process do not
// collide.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine, _ := validation.NewEngine(validation.WithMetrics(collector))
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
