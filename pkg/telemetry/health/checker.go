package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Check reports whether a component is usable. It returns nil when healthy.
type Check func(ctx context.Context) error

// Check and report statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
)

// ErrCheckTimeout is reported when a check does not return in time.
var ErrCheckTimeout = errors.New("health check timeout")

// Result is the outcome of one check.
type Result struct {
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Report aggregates check results.
type Report struct {
	Status    string            `json:"status"`
	Checks    map[string]Result `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Checker runs named checks for the readiness probe.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// New creates a checker. A zero timeout means 5s per check.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{checks: make(map[string]Check), timeout: timeout}
}

// Register adds or replaces the check called name.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Liveness reports that the process is up.
func (c *Checker) Liveness() Report {
	return Report{Status: StatusOK, Timestamp: time.Now()}
}

// Readiness runs every check concurrently. The report is degraded when any
// check fails.
func (c *Checker) Readiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{Status: StatusReady, Checks: make(map[string]Result, len(checks))}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := c.run(ctx, check)
			mu.Lock()
			report.Checks[name] = r
			if r.Status != StatusOK {
				report.Status = StatusDegraded
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	report.Timestamp = time.Now()
	return report
}

func (c *Checker) run(ctx context.Context, check Check) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	errc := make(chan error, 1)
	go func() { errc <- check(ctx) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	r := Result{Status: StatusOK, DurationMS: float64(time.Since(start).Microseconds()) / 1000}
	if err != nil {
		r.Status = StatusUnhealthy
		r.Message = err.Error()
	}
	return r
}
