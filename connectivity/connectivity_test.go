// ABOUTME: Tests for the probed call wrapper, the liveness gate and sticky flags
// ABOUTME: Uses a fake clock and zap observer so no test waits on real intervals
package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore map[string]any

func (m memStore) Get(_ context.Context, key string, dst any) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	*(dst.(*any)) = v
	return true
}

func (m memStore) Set(_ context.Context, key string, value any) error {
	m[key] = value
	return nil
}

func (m memStore) Del(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestCallOK(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := Call(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.True(t, res.OK())
	assert.Equal(t, 42, res.Value)
	assert.NoError(t, res.Err)
}

func TestCallFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("connection refused")
	res := Call(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, boom)
}

func TestCallTimesOutAndAbandonsRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	res := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Equal(t, TimedOut, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrTimeout)
}

func TestCallTimesOutWhenFnIgnoresContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	res := Call(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.Equal(t, TimedOut, res.Outcome)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCallParentCancelledIsFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Call(ctx, time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.Equal(t, Failed, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestGateCachesWithinInterval(t *testing.T) {
	clock := newFakeClock()
	var probes atomic.Int32
	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		return nil
	}), WithClock(clock.Now))

	ctx := context.Background()
	assert.True(t, gate.Available(ctx))
	assert.True(t, gate.Available(ctx))
	clock.Advance(29 * time.Second)
	assert.True(t, gate.Available(ctx))
	assert.Equal(t, int32(1), probes.Load())

	clock.Advance(2 * time.Second)
	assert.True(t, gate.Available(ctx))
	assert.Equal(t, int32(2), probes.Load())
}

func TestGateCachesFailureAndLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	clock := newFakeClock()
	var probes atomic.Int32
	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		return errors.New("dial tcp: connection refused")
	}), WithClock(clock.Now), WithGateLogger(zap.New(core)))

	ctx := context.Background()
	assert.False(t, gate.Available(ctx))
	assert.False(t, gate.Available(ctx))
	assert.Equal(t, int32(1), probes.Load())
	assert.Equal(t, 1, logs.Len())

	at, available := gate.LastCheck()
	assert.Equal(t, clock.Now(), at)
	assert.False(t, available)
}

func TestGateProbeTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}), WithProbeTimeout(10*time.Millisecond))

	assert.False(t, gate.Available(context.Background()))
}

func TestGateRecordAndReset(t *testing.T) {
	clock := newFakeClock()
	var probes atomic.Int32
	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		return errors.New("down")
	}), WithClock(clock.Now))

	ctx := context.Background()
	gate.Record(true)
	assert.True(t, gate.Available(ctx))
	assert.Equal(t, int32(0), probes.Load())

	gate.Reset()
	assert.False(t, gate.Available(ctx))
	assert.Equal(t, int32(1), probes.Load())
}

func TestGateSharesInFlightProbe(t *testing.T) {
	release := make(chan struct{})
	var probes atomic.Int32
	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		<-release
		return nil
	}), WithProbeTimeout(5*time.Second))

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = gate.Available(context.Background())
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.True(t, r)
	}
	assert.LessOrEqual(t, probes.Load(), int32(2))
}

func TestGateProbeSurvivesCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	var probes atomic.Int32
	gate := NewGate(ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}), WithProbeTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan bool, 1)
	go func() { first <- gate.Available(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.True(t, <-first)
	assert.True(t, gate.Available(context.Background()))
	assert.Equal(t, int32(1), probes.Load())
}

func TestFlagLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memStore{}
	flag := NewFlag(store, CRMFlagKey)

	assert.False(t, flag.IsSet(ctx))
	require.NoError(t, flag.Set(ctx))
	assert.True(t, flag.IsSet(ctx))
	assert.Equal(t, "true", store[CRMFlagKey])

	require.NoError(t, flag.Clear(ctx))
	assert.False(t, flag.IsSet(ctx))
	require.NoError(t, flag.Clear(ctx))
}

func TestFlagAcceptsOnlyTrue(t *testing.T) {
	ctx := context.Background()
	store := memStore{TasksFlagKey: "false"}
	flag := NewFlag(store, TasksFlagKey)
	assert.False(t, flag.IsSet(ctx))

	store[TasksFlagKey] = true
	assert.True(t, flag.IsSet(ctx))
}

func TestFlagsAreIndependentPerModule(t *testing.T) {
	ctx := context.Background()
	store := memStore{}
	crm := NewFlag(store, CRMFlagKey)
	tasks := NewFlag(store, TasksFlagKey)

	require.NoError(t, crm.Set(ctx))
	assert.True(t, crm.IsSet(ctx))
	assert.False(t, tasks.IsSet(ctx))
}

func TestStateTransition(t *testing.T) {
	var s State
	at := time.Now()
	assert.Equal(t, Unknown, s.Transition(Offline, at))
	assert.Equal(t, Offline, s.Transition(Online, at))
	assert.Equal(t, Online, s.Mode)
	assert.Equal(t, at, s.LastCheck)
	assert.Equal(t, "online", s.Mode.String())
}
