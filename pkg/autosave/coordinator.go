package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/draft"
	"mercator-hq/waybill/pkg/telemetry/logging"
	"mercator-hq/waybill/pkg/telemetry/metrics"
	"mercator-hq/waybill/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrSuperseded resolves a request replaced by a newer Schedule call
	// within the debounce window.
	ErrSuperseded = errors.New("autosave superseded by a newer request")

	// ErrCanceled resolves a request cleared by Cancel before it ran.
	ErrCanceled = errors.New("autosave canceled")

	// ErrDropped resolves a request whose timer fired while another save was
	// running. Nothing was written for it.
	ErrDropped = errors.New("autosave dropped while another save was running")
)

// Saver is the part of the draft store the coordinator writes through.
// *draft.Store satisfies it.
type Saver interface {
	DetectConflict(ctx context.Context, key, writerID string, candidate any) (bool, error)
	Save(ctx context.Context, key string, data any) error
	SetWriter(ctx context.Context, key, writerID string) error
	Writer(ctx context.Context, key string) (string, bool, error)
}

// NewInstanceID returns a fresh writer instance id.
func NewInstanceID() string {
	return uuid.NewString()
}

type request struct {
	key      string
	data     any
	writerID string
	done     chan error
}

func (r *request) resolve(err error) {
	r.done <- err
	close(r.done)
}

// Coordinator debounces draft saves and refuses to overwrite a draft owned by
// another writer. At most one save is in flight at a time; a request whose
// timer fires while another save is running is dropped.
type Coordinator struct {
	saver   Saver
	delay   time.Duration
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	mu       sync.Mutex
	idle     *sync.Cond // signaled when a running save finishes
	pending  *request
	timer    *time.Timer
	running  bool
	rejected bool
	flushing int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the quiet period between the last Schedule call and the save.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) { c.delay = d }
}

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// WithConfig applies delay and timeout from cfg.
func WithConfig(cfg config.AutoSaveConfig) Option {
	return func(c *Coordinator) {
		if cfg.Delay > 0 {
			c.delay = cfg.Delay
		}
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer sets the tracer used for save spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// NewCoordinator creates a Coordinator writing through saver.
func NewCoordinator(saver Saver, opts ...Option) *Coordinator {
	c := &Coordinator{
		saver:   saver,
		delay:   config.DefaultAutoSaveDelay,
		timeout: config.DefaultAutoSaveTimeout,
	}
	c.idle = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default().With("component", "autosave")
	}
	if c.tracer == nil {
		c.tracer = tracing.Noop()
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() State {
	switch {
	case c.running:
		return Running
	case c.pending != nil:
		return Scheduled
	case c.rejected:
		return ConflictRejected
	default:
		return Idle
	}
}

// Schedule queues data to be saved under key once the debounce delay passes
// without another call. Any request still waiting is resolved with
// ErrSuperseded. The returned channel receives exactly one value: nil once the
// data is saved, ErrDropped when the timer fired while another save was
// running, a *draft.ConflictError when another writer owns different data,
// ErrCanceled, ErrSuperseded, or the storage error.
func (c *Coordinator) Schedule(key string, data any, writerID string) <-chan error {
	req := &request{key: key, data: data, writerID: writerID, done: make(chan error, 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		c.timer.Stop()
		c.metrics.RecordAutoSave("superseded")
		c.pending.resolve(ErrSuperseded)
	}
	c.rejected = false
	c.pending = req
	c.timer = time.AfterFunc(c.delay, func() { c.fire(req) })
	return req.done
}

// Cancel clears a scheduled save. It has no effect on a save already running
// and is a no-op when nothing is scheduled.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	c.timer.Stop()
	c.metrics.RecordAutoSave("canceled")
	c.pending.resolve(ErrCanceled)
	c.pending, c.timer = nil, nil
}

// Flush runs a scheduled save now instead of waiting for the delay and blocks
// until it finishes. When a save is already running, Flush waits for it and
// then runs the scheduled one, so the latest data is never dropped. It reports
// whether a scheduled save was run.
func (c *Coordinator) Flush() bool {
	c.mu.Lock()
	c.flushing++
	for c.running {
		if c.pending != nil {
			c.timer.Stop()
		}
		c.idle.Wait()
	}
	c.flushing--

	req := c.pending
	if req == nil {
		c.mu.Unlock()
		return false
	}
	c.timer.Stop()
	c.pending, c.timer = nil, nil
	c.running = true
	c.mu.Unlock()

	c.execute(req)
	return true
}

// fire moves req from Scheduled to Running. It does nothing unless req is
// still the pending request, so a timer that fires after Flush or Cancel
// cannot apply it twice. While a Flush is waiting on a running save the
// request stays pending for Flush to run.
func (c *Coordinator) fire(req *request) {
	c.mu.Lock()
	if c.pending != req {
		c.mu.Unlock()
		return
	}
	if c.running && c.flushing > 0 {
		c.mu.Unlock()
		return
	}
	c.pending, c.timer = nil, nil

	if c.running {
		c.mu.Unlock()
		c.logger.Debug("autosave dropped, another save is running", "draft_key", req.key)
		c.metrics.RecordAutoSave("dropped")
		req.resolve(ErrDropped)
		return
	}
	c.running = true
	c.mu.Unlock()

	c.execute(req)
}

// execute runs a request the caller has already marked running.
func (c *Coordinator) execute(req *request) {
	err := c.run(req)

	c.mu.Lock()
	c.running = false
	c.rejected = errors.Is(err, draft.ErrConflict)
	c.idle.Broadcast()
	c.mu.Unlock()

	req.resolve(err)
}

func (c *Coordinator) run(req *request) (err error) {
	ctx := logging.WithWriter(logging.WithDraftKey(context.Background(), req.key), req.writerID)
	ctx, span := c.tracer.Start(ctx, "autosave.save", trace.WithAttributes(
		attribute.String("draft.key", req.key),
		attribute.String("draft.writer", req.writerID),
	))
	start := time.Now()
	c.metrics.SetAutoSaveRunning(true)

	defer func() {
		c.metrics.SetAutoSaveRunning(false)
		c.metrics.ObserveAutoSaveDuration(time.Since(start))
		c.metrics.RecordAutoSave(outcome(err))
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		span.End()
	}()

	conflict, err := withTimeout(ctx, c.timeout, "detect conflict", func(ctx context.Context) (bool, error) {
		return c.saver.DetectConflict(ctx, req.key, req.writerID, req.data)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "autosave conflict check failed", "error", err)
		return err
	}

	if conflict {
		owner, _ := withTimeout(ctx, c.timeout, "read owner", func(ctx context.Context) (string, error) {
			owner, _, err := c.saver.Writer(ctx, req.key)
			return owner, err
		})
		c.logger.WarnContext(ctx, "autosave refused, draft owned by another writer", "owner", owner)
		return &draft.ConflictError{Key: req.key, Owner: owner, Writer: req.writerID}
	}

	_, err = withTimeout(ctx, c.timeout, "save", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.saver.Save(ctx, req.key, req.data)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "autosave failed", "error", err)
		return err
	}

	_, err = withTimeout(ctx, c.timeout, "set writer", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.saver.SetWriter(ctx, req.key, req.writerID)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "autosave could not record writer", "error", err)
		return err
	}

	c.logger.DebugContext(ctx, "autosave complete", "duration", time.Since(start))
	return nil
}

// withTimeout runs fn under timeout. A store that ignores its context is
// abandoned once the deadline passes.
func withTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("autosave %s: %w", op, ctx.Err())
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "saved"
	case errors.Is(err, draft.ErrConflict):
		return "conflict"
	case errors.Is(err, draft.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
