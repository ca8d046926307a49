// Package health provides liveness and readiness probes.
//
// Each registered check runs in its own background goroutine at a fixed
// interval. Thresholds avoid flapping: a check must fail failureThreshold
// times in a row before it is reported unhealthy and succeed
// successThreshold times in a row before it is reported healthy again.
package health

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Default thresholds for registered checks.
const (
	DefaultFailureThreshold = 3
	DefaultSuccessThreshold = 1
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// CheckOption tunes a single check.
type CheckOption func(c *checkConfig)

// WithThresholds overrides the failure and success thresholds. Values below
// one are ignored.
func WithThresholds(failure, success int) CheckOption {
	return func(c *checkConfig) {
		if failure > 0 {
			c.failureThreshold = failure
		}
		if success > 0 {
			c.successThreshold = success
		}
	}
}

// checkConfig holds the configuration and runtime state of one check.
//
// run is called from a single goroutine, so the counters need no locking.
// healthy and lastErr are read by HTTP handlers and are atomic.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func newCheck(name string, timeout time.Duration, check CheckFunc, opts []CheckOption) *checkConfig {
	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: DefaultFailureThreshold,
		successThreshold: DefaultSuccessThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	c.healthy.Store(true) // healthy until proven otherwise
	return c
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and applies the thresholds. It reports whether
// the health flag flipped.
func (c *checkConfig) run(ctx context.Context) (changed bool) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	was := c.isHealthy()
	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
	return was != c.isHealthy()
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	ready atomic.Bool

	// mu guards the check slices and cancel. Handlers copy the slices under
	// RLock and read check state without holding it.
	mu              sync.RWMutex
	livenessChecks  []*checkConfig
	readinessChecks []*checkConfig
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check deciding whether the process is alive.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newCheck(name, timeout, check, opts))
}

// AddReadinessCheck registers a check deciding whether the service should
// receive traffic.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc, opts ...CheckOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newCheck(name, timeout, check, opts))
}

// Start runs every registered check in its own goroutine at interval until
// Stop is called or ctx is cancelled. Health flips are logged with the
// logger from ctx.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*checkConfig, 0, len(h.livenessChecks)+len(h.readinessChecks))
	checks = append(checks, h.livenessChecks...)
	checks = append(checks, h.readinessChecks...)
	h.mu.Unlock()

	for _, c := range checks {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			runCheck(ctx, c, interval)
		}()
	}
}

func runCheck(ctx context.Context, c *checkConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lg := zctx.From(ctx).With(zap.String("check", c.name))
	tick := func() {
		if !c.run(ctx) {
			return
		}
		if c.isHealthy() {
			lg.Info("Check recovered")
		} else {
			lg.Warn("Check unhealthy", zap.Error(c.getLastError()))
		}
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// SetReady sets the manual readiness flag. Set it to false on shutdown to
// drain traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	checks := h.readinessChecks
	h.mu.RUnlock()

	for _, c := range checks {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Stop cancels all check goroutines and waits for them to exit. It is safe
// to call Stop multiple times.
func (h *Health) Stop() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} when every liveness check
// passes, 503 {"status":"unhealthy","checks":{...}} otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := slices.Clone(h.livenessChecks)
	h.mu.RUnlock()

	writeResponse(w, collectFailures(checks))
}

// ReadyEndpoint serves /readyz. It reports ok only when the service is marked
// ready and every readiness check passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	checks := slices.Clone(h.readinessChecks)
	h.mu.RUnlock()

	failures := collectFailures(checks)
	if !ready {
		failures = append(failures, failure{name: "_readiness", message: "service is not ready"})
	}
	writeResponse(w, failures)
}

type failure struct {
	name    string
	message string
}

// collectFailures lists unhealthy checks by name using the last stored error.
func collectFailures(checks []*checkConfig) []failure {
	var out []failure
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		msg := "check is unhealthy"
		if err := c.getLastError(); err != nil {
			msg = err.Error()
		}
		out = append(out, failure{name: c.name, message: msg})
	}
	slices.SortFunc(out, func(a, b failure) int {
		return cmp.Compare(a.name, b.name)
	})
	return out
}

func writeResponse(w http.ResponseWriter, failures []failure) {
	w.Header().Set("Content-Type", "application/json")

	var e jx.Encoder
	status := http.StatusOK
	e.ObjStart()
	e.FieldStart("status")
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for _, f := range failures {
			e.FieldStart(f.name)
			e.Str(f.message)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.WriteHeader(status)
	// The status is already sent; a failed write means the client is gone.
	_, _ = w.Write(e.Bytes())
}
