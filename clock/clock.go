// Package clock advances a simulated timestamp on a fixed tick while
// animating, on a slow passive refresh while idle, and on demand (Skip).
//
// Every advance runs the handler under a single serialization lock, so one
// logical tick (increment, recompute, notify) completes before the next tick,
// refresh or skip can begin.
package clock

import (
	"context"
	"sync"
	"time"
)

// State is the animation state of a Clock.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Source identifies what caused an advance.
type Source int

const (
	SourceTick Source = iota
	SourceSkip
	SourceRefresh
	SourceSet
)

func (s Source) String() string {
	switch s {
	case SourceTick:
		return "tick"
	case SourceSkip:
		return "skip"
	case SourceRefresh:
		return "refresh"
	default:
		return "set"
	}
}

// Advance describes one step of simulated time.
type Advance struct {
	Time      time.Time     // timestamp after the increment was applied
	Increment time.Duration // amount added; zero for SourceSet
	Animate   bool          // whether renderers should transition smoothly
	Source    Source
}

// Handler performs the recomputation for an advance. It runs on the clock's
// goroutines and must not call Start, Stop, Skip, Set or Close.
type Handler func(Advance)

// Options configures the tick sources.
type Options struct {
	TickInterval     time.Duration // animation tick period
	RefreshInterval  time.Duration // passive refresh period; <= 0 disables it
	RefreshIncrement time.Duration // time added per passive refresh
}

// Clock owns the simulated timestamp.
type Clock struct {
	opts      Options
	handler   Handler
	newTicker TickerFactory

	// serializes logical ticks
	tickMu sync.Mutex

	mu      sync.Mutex
	now     time.Time // GUARDED_BY(mu)
	state   State     // GUARDED_BY(mu)
	anim    *task     // GUARDED_BY(mu)
	refresh *task     // GUARDED_BY(mu)
}

// Option customizes a Clock.
type Option func(*Clock)

// WithTickerFactory replaces the time.Ticker based tick source.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Clock) {
		c.newTicker = f
	}
}

// New returns an idle clock starting at start.
func New(start time.Time, opts Options, handler Handler, options ...Option) *Clock {
	c := &Clock{
		opts:      opts,
		handler:   handler,
		newTicker: NewTimeTicker,
		now:       start,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Now returns a snapshot of the simulated timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// State returns Idle or Running.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start enters Running and begins advancing by increment on every tick.
// It reports false, doing nothing, if the clock is already running.
func (c *Clock) Start(increment time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return false
	}
	c.state = Running
	c.anim = c.spawn(c.opts.TickInterval, func() {
		c.advance(increment, true, SourceTick)
	})
	return true
}

// Stop returns to Idle. When Stop returns the tick source is released and
// no further tick will fire. Stop is idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	t := c.anim
	c.anim = nil
	c.state = Idle
	c.mu.Unlock()
	t.halt()
}

// Skip advances by increment immediately regardless of state, and returns
// the new timestamp. The state is left unchanged.
func (c *Clock) Skip(increment time.Duration, animate bool) time.Time {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	return c.advance(increment, animate, SourceSkip)
}

// Set replaces the timestamp and runs the handler once.
func (c *Clock) Set(t time.Time) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
	c.handler(Advance{Time: t, Source: SourceSet})
}

// StartRefresh starts the passive refresh timer. While the clock is Idle
// each refresh advances time by RefreshIncrement without animation; while
// Running refreshes are skipped. It reports false if refresh is disabled
// or already started.
func (c *Clock) StartRefresh() bool {
	if c.opts.RefreshInterval <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refresh != nil {
		return false
	}
	c.refresh = c.spawn(c.opts.RefreshInterval, func() {
		if c.State() == Running {
			return
		}
		c.advance(c.opts.RefreshIncrement, false, SourceRefresh)
	})
	return true
}

// Close stops animation and passive refresh.
func (c *Clock) Close() {
	c.Stop()
	c.mu.Lock()
	t := c.refresh
	c.refresh = nil
	c.mu.Unlock()
	t.halt()
}

// advance must be called with tickMu held.
func (c *Clock) advance(increment time.Duration, animate bool, src Source) time.Time {
	c.mu.Lock()
	c.now = c.now.Add(increment)
	now := c.now
	c.mu.Unlock()
	c.handler(Advance{Time: now, Increment: increment, Animate: animate, Source: src})
	return now
}

// task is a running tick loop with a synchronous cancel.
type task struct {
	stop func()
}

// spawn starts a loop calling fn on every tick of a new ticker. Must be
// called with mu held.
func (c *Clock) spawn(interval time.Duration, fn func()) *task {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := c.newTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				c.fire(ctx, fn)
			}
		}
	}()

	return &task{stop: func() {
		cancel()
		<-done
	}}
}

func (c *Clock) fire(ctx context.Context, fn func()) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	// The loop may have been cancelled while waiting for tickMu.
	if ctx.Err() != nil {
		return
	}
	fn()
}

func (t *task) halt() {
	if t != nil {
		t.stop()
	}
}
