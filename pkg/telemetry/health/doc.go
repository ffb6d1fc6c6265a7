// Package health serves liveness and readiness probes for long-running
// waybill commands.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("drafts", func(ctx context.Context) error {
//		_, err := kv.Keys(ctx, "")
//		return err
//	})
//	mux.Handle("/healthz", checker.LivenessHandler())
//	mux.Handle("/readyz", checker.ReadinessHandler())
package health
