package autosave

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/telemetry/metrics"
	"mercator-hq/waybill/pkg/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// fakeSaver records calls. When block is set, Save waits for it to close and
// signals entered first; when hang is set, DetectConflict ignores its context
// and waits for hang.
type fakeSaver struct {
	mu       sync.Mutex
	saved    []any
	owner    string
	conflict bool
	saveErr  error

	entered chan struct{}
	block   chan struct{}
	hang    chan struct{}
}

func (f *fakeSaver) DetectConflict(ctx context.Context, key, writerID string, candidate any) (bool, error) {
	if f.hang != nil {
		<-f.hang
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conflict, nil
}

func (f *fakeSaver) Save(ctx context.Context, key string, data any) error {
	if f.block != nil {
		f.entered <- struct{}{}
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, data)
	return nil
}

func (f *fakeSaver) SetWriter(ctx context.Context, key, writerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = writerID
	return nil
}

func (f *fakeSaver) Writer(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner, f.owner != "", nil
}

func (f *fakeSaver) savedData() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.saved...)
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for autosave result")
		return nil
	}
}

func TestCoordinator_DebounceKeepsLastRequest(t *testing.T) {
	f := &fakeSaver{}
	c := NewCoordinator(f, WithDelay(30*time.Millisecond))

	first := c.Schedule("draft", "a", "w1")
	second := c.Schedule("draft", "b", "w1")
	if c.State() != Scheduled {
		t.Errorf("State() = %v, want scheduled", c.State())
	}
	third := c.Schedule("draft", "c", "w1")

	if err := wait(t, first); !errors.Is(err, ErrSuperseded) {
		t.Errorf("first = %v, want ErrSuperseded", err)
	}
	if err := wait(t, second); !errors.Is(err, ErrSuperseded) {
		t.Errorf("second = %v, want ErrSuperseded", err)
	}
	if err := wait(t, third); err != nil {
		t.Fatalf("third = %v, want nil", err)
	}

	saved := f.savedData()
	if len(saved) != 1 || saved[0] != "c" {
		t.Errorf("saved = %v, want [c]", saved)
	}
	if f.owner != "w1" {
		t.Errorf("owner = %q, want w1", f.owner)
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestCoordinator_Cancel(t *testing.T) {
	f := &fakeSaver{}
	c := NewCoordinator(f, WithDelay(time.Hour))

	c.Cancel() // nothing scheduled

	ch := c.Schedule("draft", "a", "w1")
	c.Cancel()
	if err := wait(t, ch); !errors.Is(err, ErrCanceled) {
		t.Errorf("err = %v, want ErrCanceled", err)
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
	if c.Flush() {
		t.Error("Flush after Cancel should find nothing")
	}
	if len(f.savedData()) != 0 {
		t.Error("canceled request was saved")
	}
}

func TestCoordinator_FlushRunsOnce(t *testing.T) {
	f := &fakeSaver{}
	c := NewCoordinator(f, WithDelay(20*time.Millisecond))

	ch := c.Schedule("draft", "a", "w1")
	if !c.Flush() {
		t.Fatal("Flush found nothing scheduled")
	}
	if err := wait(t, ch); err != nil {
		t.Fatalf("err = %v", err)
	}

	time.Sleep(50 * time.Millisecond) // let the stopped timer's window pass
	if n := len(f.savedData()); n != 1 {
		t.Errorf("saves = %d, want 1", n)
	}
}

func TestCoordinator_FireIsIdempotent(t *testing.T) {
	f := &fakeSaver{}
	c := NewCoordinator(f, WithDelay(time.Hour))

	ch := c.Schedule("draft", "a", "w1")
	c.mu.Lock()
	req := c.pending
	c.mu.Unlock()

	c.fire(req)
	c.fire(req)

	if err := wait(t, ch); err != nil {
		t.Fatalf("err = %v", err)
	}
	if n := len(f.savedData()); n != 1 {
		t.Errorf("saves = %d, want 1", n)
	}
}

func TestCoordinator_DropsWhileRunning(t *testing.T) {
	f := &fakeSaver{entered: make(chan struct{}, 1), block: make(chan struct{})}
	c := NewCoordinator(f, WithDelay(5*time.Millisecond))

	first := c.Schedule("draft", "a", "w1")
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first save never started")
	}
	if c.State() != Running {
		t.Errorf("State() = %v, want running", c.State())
	}

	second := c.Schedule("draft", "b", "w1")
	if err := wait(t, second); !errors.Is(err, ErrDropped) {
		t.Errorf("dropped request = %v, want ErrDropped", err)
	}

	close(f.block)
	if err := wait(t, first); err != nil {
		t.Fatalf("first = %v", err)
	}

	saved := f.savedData()
	if len(saved) != 1 || saved[0] != "a" {
		t.Errorf("saved = %v, want [a]", saved)
	}
}

func TestCoordinator_FlushWaitsForRunningSave(t *testing.T) {
	f := &fakeSaver{entered: make(chan struct{}, 2), block: make(chan struct{})}
	c := NewCoordinator(f, WithDelay(5*time.Millisecond))

	first := c.Schedule("draft", "a", "w1")
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first save never started")
	}

	// Long delay so only Flush can run the second request.
	c.delay = time.Hour
	second := c.Schedule("draft", "b", "w1")

	flushed := make(chan bool, 1)
	go func() { flushed <- c.Flush() }()

	select {
	case <-flushed:
		t.Fatal("Flush returned while a save was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(f.block)
	if err := wait(t, first); err != nil {
		t.Fatalf("first = %v", err)
	}
	select {
	case ok := <-flushed:
		if !ok {
			t.Error("Flush() = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Flush never returned")
	}
	if err := wait(t, second); err != nil {
		t.Errorf("second = %v, want nil", err)
	}

	saved := f.savedData()
	if len(saved) != 2 || saved[0] != "a" || saved[1] != "b" {
		t.Errorf("saved = %v, want [a b]", saved)
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestCoordinator_ConflictRejected(t *testing.T) {
	f := &fakeSaver{conflict: true, owner: "other-tab"}
	c := NewCoordinator(f, WithDelay(time.Millisecond))

	err := wait(t, c.Schedule("draft", "mine", "this-tab"))
	var ce *draft.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *draft.ConflictError", err)
	}
	if ce.Owner != "other-tab" || ce.Writer != "this-tab" {
		t.Errorf("ConflictError = %+v", ce)
	}
	if c.State() != ConflictRejected {
		t.Errorf("State() = %v, want conflict_rejected", c.State())
	}
	if len(f.savedData()) != 0 {
		t.Error("conflicting data was written")
	}
	if f.owner != "other-tab" {
		t.Errorf("owner changed to %q", f.owner)
	}

	f.mu.Lock()
	f.conflict = false
	f.mu.Unlock()
	if err := wait(t, c.Schedule("draft", "mine", "this-tab")); err != nil {
		t.Fatalf("retry = %v", err)
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestCoordinator_StoreTimeout(t *testing.T) {
	f := &fakeSaver{hang: make(chan struct{})}
	defer close(f.hang)

	c := NewCoordinator(f, WithDelay(time.Millisecond), WithTimeout(20*time.Millisecond))
	err := wait(t, c.Schedule("draft", "a", "w1"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if c.State() != Idle {
		t.Errorf("State() = %v, want idle", c.State())
	}
}

func TestCoordinator_SaveError(t *testing.T) {
	f := &fakeSaver{saveErr: &draft.StorageError{Op: "save", Key: "draft", Err: draft.ErrQuotaExceeded}}
	c := NewCoordinator(f, WithDelay(time.Millisecond))

	err := wait(t, c.Schedule("draft", "a", "w1"))
	if !errors.Is(err, draft.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if f.owner != "" {
		t.Error("writer recorded after failed save")
	}
}

func TestCoordinator_WithDraftStore(t *testing.T) {
	store := draft.NewStore(draft.NewMemoryKV(0))
	tabA, tabB := NewInstanceID(), NewInstanceID()
	if tabA == tabB {
		t.Fatal("instance ids must differ")
	}

	a := NewCoordinator(store, WithDelay(time.Millisecond))
	b := NewCoordinator(store, WithDelay(time.Millisecond))

	doc := map[string]any{"origin": map[string]any{"zip": "10001"}}
	if err := wait(t, a.Schedule("shipment", doc, tabA)); err != nil {
		t.Fatalf("tab A save: %v", err)
	}

	// Identical state from another tab is not a conflict.
	if err := wait(t, b.Schedule("shipment", doc, tabB)); err != nil {
		t.Fatalf("tab B identical save: %v", err)
	}

	// Tab B now owns the draft, so tab A's different data is refused.
	changed := map[string]any{"origin": map[string]any{"zip": "94105"}}
	err := wait(t, a.Schedule("shipment", changed, tabA))
	if !errors.Is(err, draft.ErrConflict) {
		t.Fatalf("tab A changed save = %v, want ErrConflict", err)
	}

	var got map[string]any
	if ok, err := store.Load(context.Background(), "shipment", &got); err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if zip := got["origin"].(map[string]any)["zip"]; zip != "10001" {
		t.Errorf("stored zip = %v, want 10001", zip)
	}
}

func TestCoordinator_MetricsAndSpans(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, reg)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	f := &fakeSaver{}
	c := NewCoordinator(f,
		WithDelay(10*time.Millisecond),
		WithMetrics(collector),
		WithTracer(tracing.FromProvider(tp)),
	)

	superseded := c.Schedule("draft", "a", "w1")
	saved := c.Schedule("draft", "b", "w1")
	wait(t, superseded)
	if err := wait(t, saved); err != nil {
		t.Fatalf("err = %v", err)
	}

	want := `
# HELP test_autosave_requests_total Total number of auto-save requests by outcome
# TYPE test_autosave_requests_total counter
test_autosave_requests_total{outcome="saved"} 1
test_autosave_requests_total{outcome="superseded"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "test_autosave_requests_total"); err != nil {
		t.Error(err)
	}

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "autosave.save" {
		t.Fatalf("spans = %v, want one autosave.save", spans)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		Idle:             "idle",
		Scheduled:        "scheduled",
		Running:          "running",
		ConflictRejected: "conflict_rejected",
		State(42):        "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
