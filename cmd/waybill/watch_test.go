package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/waybill/pkg/autosave"
	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/progress"
	"mercator-hq/waybill/pkg/telemetry/health"
	"mercator-hq/waybill/pkg/telemetry/metrics"
	"mercator-hq/waybill/pkg/telemetry/tracing"
	"mercator-hq/waybill/pkg/validation"
)

func newTestSession(t *testing.T, store *draft.Store, file, writer string) (*session, *bytes.Buffer) {
	t.Helper()
	engine, err := validation.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	return &session{
		key:     "booking",
		writer:  writer,
		file:    file,
		engine:  engine,
		tracker: progress.NewTracker(),
		saver:   autosave.NewCoordinator(store, autosave.WithDelay(time.Hour)),
		tracer:  tracing.Noop(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:     &out,
	}, &out
}

func TestSession_ReloadSavesDraft(t *testing.T) {
	store := draft.NewStore(draft.NewMemoryKV(0))
	s, out := newTestSession(t, store, "testdata/valid-shipment.yaml", "tab-1")

	if err := s.reload(context.Background()); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if s.saver.State() != autosave.Scheduled {
		t.Errorf("State() = %v, want scheduled", s.saver.State())
	}
	s.saver.Flush()
	s.pending.Wait()

	for _, want := range []string{"100%", "✓ Record valid", "✓ Draft booking auto-saved"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	owner, ok, err := store.Writer(context.Background(), "booking")
	if err != nil || !ok || owner != "tab-1" {
		t.Errorf("Writer() = %q, %v, %v", owner, ok, err)
	}
}

func TestSession_ReportsConflict(t *testing.T) {
	store := draft.NewStore(draft.NewMemoryKV(0))
	first, _ := newTestSession(t, store, "testdata/valid-shipment.yaml", "tab-1")
	if err := first.reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	first.saver.Flush()
	first.pending.Wait()

	second, out := newTestSession(t, store, "testdata/same-zip.json", "tab-2")
	if err := second.reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	second.saver.Flush()
	second.pending.Wait()

	if !strings.Contains(out.String(), "owned by writer tab-1") {
		t.Errorf("output:\n%s", out)
	}
	if second.saver.State() != autosave.ConflictRejected {
		t.Errorf("State() = %v, want conflict_rejected", second.saver.State())
	}
}

func TestSession_ReportDoesNotClaimDroppedSave(t *testing.T) {
	s, out := newTestSession(t, draft.NewStore(draft.NewMemoryKV(0)), "testdata/valid-shipment.yaml", "tab-1")

	s.report(autosave.ErrDropped)

	if strings.Contains(out.String(), "auto-saved") {
		t.Errorf("dropped save reported as saved:\n%s", out)
	}
	if !strings.Contains(out.String(), "not saved") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSession_ReloadBadRecord(t *testing.T) {
	store := draft.NewStore(draft.NewMemoryKV(0))
	s, _ := newTestSession(t, store, "testdata/typo-shipment.yaml", "tab-1")
	if err := s.reload(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
	if s.saver.State() != autosave.Idle {
		t.Error("a record that fails to parse must not be scheduled")
	}
}

func TestStartTelemetryServer_Disabled(t *testing.T) {
	cfg := config.MetricsConfig{Enabled: false, ListenAddress: "127.0.0.1:0", Path: "/metrics"}
	if srv := startTelemetryServer(cfg, "", nil, health.New(0), slog.Default()); srv != nil {
		t.Error("disabled metrics should not start a server")
	}
}

func TestStartTelemetryServer_Routes(t *testing.T) {
	cfg := config.MetricsConfig{Enabled: true, Namespace: "test", Path: "/metrics", ListenAddress: "127.0.0.1:0"}
	collector := metrics.NewCollector(&cfg, nil)
	srv := startTelemetryServer(cfg, "", collector, health.New(0), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if srv == nil {
		t.Fatal("expected server")
	}
	defer srv.Close()

	for _, path := range []string{"/metrics", "/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}
}
