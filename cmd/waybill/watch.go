package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"mercator-hq/waybill/pkg/autosave"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/draft/retention"
	"mercator-hq/waybill/pkg/filewatch"
	"mercator-hq/waybill/pkg/progress"
	"mercator-hq/waybill/pkg/telemetry/health"
	"mercator-hq/waybill/pkg/telemetry/metrics"
	"mercator-hq/waybill/pkg/telemetry/tracing"
	"mercator-hq/waybill/pkg/validation"
)

var watchFlags struct {
	file        string
	key         string
	writer      string
	metricsAddr string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Validate, track and auto-save a record file while it is edited",
	Long: `Watch a record file and react to every saved edit the way the booking
form does: validate the record, report progress, and schedule a debounced
auto-save of the draft. Auto-saves are refused when another writer owns
different data under the same key.

When --config is given the file is watched too, and business-rule tables are
reloaded without restarting. Prometheus metrics, /healthz and /readyz are
served on --metrics-addr.

Examples:
  waybill watch --file shipment.yaml --key booking-42
  waybill watch --file shipment.yaml --key booking-42 --writer laptop --metrics-addr :9464`,
	RunE: watchRecord,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.file, "file", "f", "", "record file (.json, .yaml)")
	watchCmd.Flags().StringVarP(&watchFlags.key, "key", "k", "", "draft key")
	watchCmd.Flags().StringVarP(&watchFlags.writer, "writer", "w", "", "writer instance id (generated when empty)")
	watchCmd.Flags().StringVar(&watchFlags.metricsAddr, "metrics-addr", "", "override telemetry.metrics.listen_address")
	_ = watchCmd.MarkFlagRequired("file")
	_ = watchCmd.MarkFlagRequired("key")
}

// session holds the components one watch run wires together.
type session struct {
	key     string
	writer  string
	file    string
	engine  *validation.Engine
	tracker *progress.Tracker
	saver   *autosave.Coordinator
	tracer  *tracing.Tracer
	logger  *slog.Logger

	mu      sync.Mutex
	out     io.Writer
	pending sync.WaitGroup
}

func watchRecord(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg := e.cfg

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			e.logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	engine, err := newEngine(cfg, e.logger, collector)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	store, kv, err := openStore(cfg, e.logger, collector)
	if err != nil {
		return err
	}
	defer kv.Close()

	writer := watchFlags.writer
	if writer == "" {
		writer = autosave.NewInstanceID()
	}

	s := &session{
		key:     watchFlags.key,
		writer:  writer,
		file:    watchFlags.file,
		engine:  engine,
		tracker: progress.NewTracker(),
		saver: autosave.NewCoordinator(store,
			autosave.WithConfig(cfg.AutoSave),
			autosave.WithLogger(e.logger.With("component", "autosave")),
			autosave.WithMetrics(collector),
			autosave.WithTracer(tracer),
		),
		tracer: tracer,
		logger: e.logger,
		out:    cmd.OutOrStdout(),
	}

	checker := health.New(2 * time.Second)
	checker.Register("drafts", func(ctx context.Context) error {
		_, err := kv.Keys(ctx, s.key)
		return err
	})
	checker.Register("autosave", func(context.Context) error {
		if s.saver.State() == autosave.ConflictRejected {
			return fmt.Errorf("draft %s is owned by another writer", s.key)
		}
		return nil
	})

	if srv := startTelemetryServer(cfg.Telemetry.Metrics, watchFlags.metricsAddr, collector, checker, e.logger); srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pruner := retention.NewPruner(store, cfg.Drafts.Retention, e.logger)
	if err := pruner.Scheduler().Start(ctx); err != nil {
		return cli.NewConfigError("drafts.retention.schedule", err.Error())
	}
	defer pruner.Scheduler().Stop()

	if cfgFile != "" {
		go func() {
			err := config.Watch(ctx, cfgFile, e.logger, func(c *config.Config) {
				engine.SetBusinessRules(validation.NewBusinessRules(c.Validation))
			})
			if err != nil {
				e.logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	s.printf("Watching %s as writer %s (draft %s)\n", s.file, s.writer, s.key)
	if err := s.reload(ctx); err != nil {
		s.printf("✗ %v\n", err)
	}

	w, err := filewatch.New(s.file, 0, e.logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	err = w.Watch(ctx, func() error { return s.reload(ctx) })
	_ = w.Stop()

	// Save the last edit before exiting.
	s.saver.Flush()
	s.pending.Wait()
	return err
}

// reload reads the record, validates it, reports progress and schedules an
// auto-save.
func (s *session) reload(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "watch.reload")
	defer func() {
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		span.End()
	}()

	shipment, err := loadRecord(s.file)
	if err != nil {
		return err
	}

	res := s.engine.ValidateAll(shipment)
	p := s.tracker.Calculate(shipment)
	span.SetAttributes(
		attribute.Bool("record.valid", res.IsValid),
		attribute.Int("record.progress", p.Percentage),
	)

	s.mu.Lock()
	fmt.Fprintf(s.out, "\n%s  %s", time.Now().Format(time.TimeOnly), formatProgress(p))
	fmt.Fprint(s.out, formatResult(res))
	s.mu.Unlock()

	done := s.saver.Schedule(s.key, shipment, s.writer)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.report(<-done)
	}()
	return nil
}

func (s *session) report(err error) {
	var conflict *draft.ConflictError
	switch {
	case err == nil:
		s.printf("✓ Draft %s auto-saved\n", s.key)
	case errors.Is(err, autosave.ErrSuperseded), errors.Is(err, autosave.ErrCanceled):
	case errors.Is(err, autosave.ErrDropped):
		s.printf("⚠  Draft %s not saved: another save was in progress; the next edit will be saved\n", s.key)
	case errors.As(err, &conflict):
		s.printf("✗ Draft %s is owned by writer %s with different data; not saved\n", s.key, conflict.Owner)
	case errors.Is(err, draft.ErrQuotaExceeded):
		s.printf("✗ Draft storage is full; prune or clear drafts to keep auto-saving\n")
	default:
		s.printf("✗ Auto-save failed: %v\n", err)
	}
}

func (s *session) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// startTelemetryServer serves metrics and health probes when metrics are
// enabled.
func startTelemetryServer(cfg config.MetricsConfig, override string, collector *metrics.Collector, checker *health.Checker, logger *slog.Logger) *http.Server {
	addr := cfg.ListenAddress
	if override != "" {
		addr = override
	}
	if !cfg.Enabled || addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics and health probes", "address", addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
