// ABOUTME: Remote-first data controller with a local-storage fallback
// ABOUTME: Tracks online/offline mode per module and mirrors remote reads locally
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/duoproservices/portal/connectivity"
	"github.com/duoproservices/portal/models"
)

// DefaultFetchTimeout bounds every remote call a controller makes.
const DefaultFetchTimeout = 5 * time.Second

// Source is a module's remote endpoint.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
	Save(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Mirror is the local copy of a module's records.
type Mirror[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, items []T) error
}

// Option configures a Controller.
type Option func(*settings)

type settings struct {
	gate     *connectivity.Gate
	notifier Notifier
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// WithGate lets a sticky-offline module recover once the gate sees the
// backend again. Without a gate only Reconnect clears offline mode.
func WithGate(g *connectivity.Gate) Option {
	return func(s *settings) { s.gate = g }
}

func WithNotifier(n Notifier) Option {
	return func(s *settings) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Controller orchestrates one module's reads and writes. The remote copy is
// authoritative whenever it answers; the local mirror is a fallback cache.
// Changes made offline are not pushed back when the module reconnects.
type Controller[T models.Record] struct {
	module string
	remote Source[T]
	local  Mirror[T]
	flag   *connectivity.Flag
	settings

	mu    sync.Mutex
	state connectivity.State
	items []T
}

func New[T models.Record](module string, remote Source[T], local Mirror[T], flag *connectivity.Flag, opts ...Option) *Controller[T] {
	s := settings{
		notifier: Notifiers{},
		timeout:  DefaultFetchTimeout,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Controller[T]{
		module:   module,
		remote:   remote,
		local:    local,
		flag:     flag,
		settings: s,
	}
}

func (c *Controller[T]) Module() string { return c.module }

// Mode returns the controller's current view of the backend.
func (c *Controller[T]) Mode() connectivity.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Mode
}

func (c *Controller[T]) State() connectivity.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Flag returns the module's sticky offline flag.
func (c *Controller[T]) Flag() *connectivity.Flag { return c.flag }

// Items returns a copy of the collection from the last load or write.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Load returns the module's records: from the backend when it answers in
// time, otherwise from local storage. Connectivity failures never surface as
// errors; only a failing local read does.
func (c *Controller[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.offline(ctx) && (c.gate == nil || !c.gate.Available(ctx)) {
		return c.loadLocal(ctx)
	}
	return c.fetch(ctx)
}

// Reconnect clears sticky offline mode and tries the backend right away.
func (c *Controller[T]) Reconnect(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.flag.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear offline flag", zap.String("module", c.module), zap.Error(err))
	}
	if c.gate != nil {
		c.gate.Reset()
	}
	return c.fetch(ctx)
}

// Save validates item, then writes it remotely unless the module is offline.
// A failed remote write falls back to local storage and switches the module
// offline for later calls.
func (c *Controller[T]) Save(ctx context.Context, item T) (T, error) {
	if err := item.Validate(); err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.offline(ctx) {
		return c.saveLocal(ctx, item)
	}

	res := connectivity.Call(ctx, c.timeout, func(ctx context.Context) (T, error) {
		return c.remote.Save(ctx, item)
	})
	if err := abandoned(ctx, res.OK()); err != nil {
		var zero T
		return zero, err
	}
	if !res.OK() {
		c.goOffline(ctx, "save", res.Err)
		return c.saveLocal(ctx, item)
	}
	c.goOnline(ctx)

	saved := res.Value
	if saved.Validate() != nil {
		saved = item
	}
	if _, err := c.local.Save(ctx, saved); err != nil {
		c.logger.Warn("failed to mirror saved record", zap.String("module", c.module), zap.Error(err))
		c.notify(NoticeFailure, "Saved, but the local backup could not be updated")
	}
	c.upsert(saved)
	return saved, nil
}

// Delete removes id remotely unless offline, and always from the mirror.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.offline(ctx) {
		res := connectivity.Call(ctx, c.timeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.remote.Delete(ctx, id)
		})
		if err := abandoned(ctx, res.OK()); err != nil {
			return err
		}
		if res.OK() {
			c.goOnline(ctx)
		} else {
			c.goOffline(ctx, "delete", res.Err)
		}
	}

	if err := c.local.Delete(ctx, id); err != nil {
		c.notify(NoticeFailure, "Could not delete the record from this device")
		return err
	}
	c.remove(id)
	return nil
}

// Find returns the record with id from memory, falling back to the mirror.
func (c *Controller[T]) Find(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	for _, item := range c.items {
		if item.RecordID() == id {
			c.mu.Unlock()
			return item, nil
		}
	}
	c.mu.Unlock()
	return c.local.Get(ctx, id)
}

// offline syncs the mode with the sticky flag, which may have been set by a
// previous session, and reports whether the module is offline. Caller holds c.mu.
func (c *Controller[T]) offline(ctx context.Context) bool {
	if c.state.Mode != connectivity.Offline && c.flag.IsSet(ctx) {
		c.enterOffline()
	}
	return c.state.Mode == connectivity.Offline
}

func (c *Controller[T]) fetch(ctx context.Context) ([]T, error) {
	res := connectivity.Call(ctx, c.timeout, c.remote.List)
	if err := abandoned(ctx, res.OK()); err != nil {
		return nil, err
	}
	if !res.OK() {
		c.goOffline(ctx, "load", res.Err)
		return c.loadLocal(ctx)
	}
	c.goOnline(ctx)

	if err := c.local.ReplaceAll(ctx, res.Value); err != nil {
		c.logger.Warn("failed to mirror remote records", zap.String("module", c.module), zap.Error(err))
		c.notify(NoticeFailure, "Loaded live data, but the local backup could not be updated")
	}
	c.items = append([]T(nil), res.Value...)
	return append([]T(nil), c.items...), nil
}

// abandoned reports the caller's own cancellation of a failed remote call.
// That says nothing about the backend, so mode, flag, gate and notices stay put.
func abandoned(ctx context.Context, ok bool) error {
	if ok {
		return nil
	}
	return ctx.Err()
}

func (c *Controller[T]) loadLocal(ctx context.Context) ([]T, error) {
	items, err := c.local.List(ctx)
	if err != nil {
		c.notify(NoticeFailure, "Could not read data stored on this device")
		return nil, fmt.Errorf("failed to read local %s: %w", c.module, err)
	}
	c.items = items
	return append([]T(nil), items...), nil
}

func (c *Controller[T]) saveLocal(ctx context.Context, item T) (T, error) {
	saved, err := c.local.Save(ctx, item)
	if err != nil {
		c.notify(NoticeFailure, "Could not save on this device")
		var zero T
		return zero, err
	}
	c.upsert(saved)
	return saved, nil
}

func (c *Controller[T]) goOffline(ctx context.Context, op string, cause error) {
	c.logger.Warn("remote call failed, switching to local storage",
		zap.String("module", c.module),
		zap.String("op", op),
		zap.Error(cause))
	if c.gate != nil {
		c.gate.Record(false)
	}
	if err := c.flag.Set(ctx); err != nil {
		c.logger.Warn("failed to persist offline flag", zap.String("module", c.module), zap.Error(err))
	}
	if c.state.Mode != connectivity.Offline {
		c.enterOffline()
	}
}

func (c *Controller[T]) enterOffline() {
	c.state.Transition(connectivity.Offline, c.now())
	c.notify(NoticeOffline, offlineMessage(c.module))
}

func (c *Controller[T]) goOnline(ctx context.Context) {
	if c.gate != nil {
		c.gate.Record(true)
	}
	if c.flag.IsSet(ctx) {
		if err := c.flag.Clear(ctx); err != nil {
			c.logger.Warn("failed to clear offline flag", zap.String("module", c.module), zap.Error(err))
		}
	}
	if prev := c.state.Transition(connectivity.Online, c.now()); prev == connectivity.Offline {
		c.notify(NoticeOnline, onlineMessage(c.module))
	}
}

func (c *Controller[T]) notify(kind NoticeKind, msg string) {
	c.notifier.Notify(Notice{Module: c.module, Kind: kind, Message: msg})
}

func (c *Controller[T]) upsert(item T) {
	for i := range c.items {
		if c.items[i].RecordID() == item.RecordID() {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

func (c *Controller[T]) remove(id string) {
	out := c.items[:0]
	for _, item := range c.items {
		if item.RecordID() != id {
			out = append(out, item)
		}
	}
	c.items = out
}
