// ABOUTME: Connectivity gate that caches backend liveness for a fixed interval
// ABOUTME: Keeps modules from probing the backend on every call
package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCheckInterval is how long a probe answer is reused.
	DefaultCheckInterval = 30 * time.Second

	// DefaultProbeTimeout bounds a single liveness probe.
	DefaultProbeTimeout = 3 * time.Second
)

// Prober checks whether the remote backend answers.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// Gate decides whether a module should try the backend on this call.
type Gate struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	lastCheck time.Time
	available bool
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithInterval overrides how long a probe answer is cached.
func WithInterval(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithProbeTimeout overrides the probe deadline.
func WithProbeTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithGateLogger sets the logger probe failures are reported to.
func WithGateLogger(logger *zap.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates a gate over prober.
func NewGate(prober Prober, opts ...GateOption) *Gate {
	g := &Gate{
		prober:   prober,
		interval: DefaultCheckInterval,
		timeout:  DefaultProbeTimeout,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Available returns the cached answer while it is fresh, otherwise probes the
// backend. Concurrent callers share one in-flight probe.
func (g *Gate) Available(ctx context.Context) bool {
	if available, fresh := g.cached(); fresh {
		return available
	}

	v, _, _ := g.group.Do("probe", func() (interface{}, error) {
		if available, fresh := g.cached(); fresh {
			return available, nil
		}

		// Waiters share this probe, so it must outlive the caller that started it.
		res := Call(context.WithoutCancel(ctx), g.timeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.prober.Probe(ctx)
		})
		if !res.OK() {
			g.logger.Warn("backend unreachable, using local storage",
				zap.Stringer("outcome", res.Outcome),
				zap.Error(res.Err))
		}
		g.Record(res.OK())
		return res.OK(), nil
	})
	return v.(bool)
}

// Record stores an answer learned outside the gate, such as a direct fetch.
func (g *Gate) Record(available bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCheck = g.now()
	g.available = available
}

// Reset forgets the cached answer so the next call probes.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastCheck = time.Time{}
	g.available = false
}

// LastCheck returns when the cached answer was recorded and what it was.
func (g *Gate) LastCheck() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastCheck, g.available
}

func (g *Gate) cached() (available, fresh bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastCheck.IsZero() {
		return false, false
	}
	return g.available, g.now().Sub(g.lastCheck) < g.interval
}
