// Package daylight ties the simulated clock to the terminator, sub-solar and
// city computations and delivers a Frame to subscribers on every advance of
// simulated time.
package daylight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/echoflaresat/daylightmap/cities"
	"github.com/echoflaresat/daylightmap/clock"
	"github.com/echoflaresat/daylightmap/config"
	"github.com/echoflaresat/daylightmap/earth"
	"github.com/echoflaresat/daylightmap/projection"
	"github.com/echoflaresat/daylightmap/terminator"
)

// Frame is everything a renderer needs to draw the map at one instant.
type Frame struct {
	Time        time.Time
	Orientation terminator.Orientation
	Terminator  terminator.Path
	Night       []projection.Position // closed night fill polygon in canvas units
	Subsolar    earth.GeoCoordinate
	Sun         projection.Position
	Changes     []cities.Delta // cities whose lit state changed since the previous frame
	Animate     bool
	Source      clock.Source
}

// Map owns the simulated clock and recomputes a Frame on every advance.
type Map struct {
	ctx      context.Context
	cfg      config.Config
	provider earth.Provider
	sampler  *terminator.Sampler
	locator  *terminator.Locator
	plane    projection.Plane
	clock    *clock.Clock

	mu        sync.Mutex
	cities    *cities.Set             // GUARDED_BY(mu)
	last      Frame                   // GUARDED_BY(mu)
	frameSubs map[int]func(Frame)     // GUARDED_BY(mu)
	timeSubs  map[int]func(time.Time) // GUARDED_BY(mu)
	nextID    int                     // GUARDED_BY(mu)
}

// New validates cfg, computes the initial frame at cfg.StartTime() and, if
// cfg.Refresh is set, starts the passive refresh. The logger is taken from
// ctx with ctxlog.Logger. Options are passed to the underlying clock.
func New(ctx context.Context, cfg config.Config, provider earth.Provider, opts ...clock.Option) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := cfg.StartTime()
	if err := earth.ValidateTime(start); err != nil {
		return nil, err
	}
	sampler, err := terminator.NewSampler(provider, terminator.Grid{LatStep: cfg.LatStep, LngStep: cfg.LngStep}, cfg.Workers)
	if err != nil {
		return nil, err
	}
	locator, err := terminator.NewLocator(provider, terminator.Grid{LatStep: cfg.SubsolarLatStep, LngStep: cfg.SubsolarLngStep}, cfg.Workers)
	if err != nil {
		return nil, err
	}
	plane, err := projection.NewPlane(float64(cfg.Width), float64(cfg.Height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	m := &Map{
		ctx:       ctx,
		cfg:       cfg,
		provider:  provider,
		sampler:   sampler,
		locator:   locator,
		plane:     plane,
		cities:    cities.NewSet(cfg.LightsOpacity, cfg.Workers),
		frameSubs: map[int]func(Frame){},
		timeSubs:  map[int]func(time.Time){},
	}
	m.clock = clock.New(start, clock.Options{
		TickInterval:     cfg.TickDuration,
		RefreshInterval:  cfg.RefreshInterval,
		RefreshIncrement: config.RefreshIncrement,
	}, m.onAdvance, opts...)

	m.clock.Set(start)
	if cfg.Refresh {
		m.clock.StartRefresh()
	}
	ctxlog.Logger(ctx).Info("daylight map ready",
		"time", start.Format(time.RFC3339),
		"grid", sampler.Grid(),
		"subsolar_grid", locator.Grid(),
		"refresh", cfg.Refresh)
	return m, nil
}

// Config returns the configuration the map was built with.
func (m *Map) Config() config.Config {
	return m.cfg
}

// Plane returns the canvas the frames are projected onto.
func (m *Map) Plane() projection.Plane {
	return m.plane
}

// Provider returns the solar position provider.
func (m *Map) Provider() earth.Provider {
	return m.provider
}

// Compute returns the frame at t without touching the clock or the cities'
// lit state; Changes is always empty.
func (m *Map) Compute(t time.Time) Frame {
	o := terminator.OrientationAt(m.provider, t)
	path := m.sampler.Terminator(t, o)
	sub := m.locator.SubsolarPoint(t)
	return Frame{
		Time:        t,
		Orientation: o,
		Terminator:  path,
		Night:       m.plane.NightPolygon(path, o),
		Subsolar:    sub,
		Sun:         m.plane.ToPlane(sub),
	}
}

// onAdvance runs under the clock's serialization lock.
func (m *Map) onAdvance(a clock.Advance) {
	began := time.Now()
	f := m.Compute(a.Time)
	f.Animate = a.Animate
	f.Source = a.Source

	m.mu.Lock()
	f.Changes = m.cities.Refresh(m.provider, a.Time)
	m.last = f
	frameSubs := make([]func(Frame), 0, len(m.frameSubs))
	for _, fn := range m.frameSubs {
		frameSubs = append(frameSubs, fn)
	}
	timeSubs := make([]func(time.Time), 0, len(m.timeSubs))
	for _, fn := range m.timeSubs {
		timeSubs = append(timeSubs, fn)
	}
	m.mu.Unlock()

	ctxlog.Logger(m.ctx).Debug("frame",
		"source", a.Source,
		"time", a.Time.Format(time.RFC3339),
		"orientation", f.Orientation,
		"subsolar", f.Subsolar,
		"changes", len(f.Changes),
		"took", time.Since(began))

	for _, fn := range frameSubs {
		fn(f)
	}
	for _, fn := range timeSubs {
		fn(a.Time)
	}
}

// OnFrame registers fn to receive every new frame. Subscribers run on the
// clock's goroutines and must not call Start, Stop, Skip, SetTime or Close.
// The returned function cancels the subscription.
func (m *Map) OnFrame(fn func(Frame)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.frameSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.frameSubs, id)
	}
}

// OnTimeChange registers fn to receive the timestamp after every advance.
// The same restrictions as OnFrame apply.
func (m *Map) OnTimeChange(fn func(time.Time)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.timeSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.timeSubs, id)
	}
}

// Frames delivers frames on a channel holding at most size entries. When
// the reader falls behind the oldest pending frame is dropped, so the
// reader always sees the latest state. The channel is closed by cancel.
func (m *Map) Frames(size int) (frames <-chan Frame, cancel func()) {
	if size <= 0 {
		size = 1
	}
	ch := make(chan Frame, size)
	var mu sync.Mutex
	closed := false
	unsubscribe := m.OnFrame(func(f Frame) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		for {
			select {
			case ch <- f:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
}

// Frame returns the most recent frame.
func (m *Map) Frame() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Now returns the simulated time.
func (m *Map) Now() time.Time {
	return m.clock.Now()
}

// Running reports whether the animation is running.
func (m *Map) Running() bool {
	return m.clock.State() == clock.Running
}

// Start animates using the configured increment. It reports false if the
// animation was already running.
func (m *Map) Start() bool {
	return m.StartWith(m.cfg.AnimateIncrement)
}

// StartWith animates, advancing by increment on every tick.
func (m *Map) StartWith(increment time.Duration) bool {
	started := m.clock.Start(increment)
	if started {
		ctxlog.Logger(m.ctx).Info("animation started", "increment", increment, "tick", m.cfg.TickDuration)
	}
	return started
}

// Stop halts the animation. No frame caused by a tick is delivered after
// Stop returns.
func (m *Map) Stop() {
	if m.Running() {
		ctxlog.Logger(m.ctx).Info("animation stopped", "time", m.Now().Format(time.RFC3339))
	}
	m.clock.Stop()
}

// Toggle starts a stopped animation or stops a running one, and reports
// whether it is now running.
func (m *Map) Toggle() bool {
	if m.Running() {
		m.Stop()
		return false
	}
	m.Start()
	return true
}

// Skip jumps by increment, which may be negative, and returns the new time.
// The animation state is unchanged.
func (m *Map) Skip(increment time.Duration, animate bool) time.Time {
	t := m.clock.Skip(increment, animate)
	ctxlog.Logger(m.ctx).Info("skipped", "increment", increment, "time", t.Format(time.RFC3339))
	return t
}

// SetTime jumps to t.
func (m *Map) SetTime(t time.Time) error {
	if err := earth.ValidateTime(t); err != nil {
		return err
	}
	m.clock.Set(t)
	return nil
}

// AddPoint starts tracking p. Its lit state is reported in the next frame.
func (m *Map) AddPoint(p cities.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cities.Add(p)
}

// AddPoints tracks every point, stopping at the first invalid one.
func (m *Map) AddPoints(points []cities.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if err := m.cities.Add(p); err != nil {
			return fmt.Errorf("point %d (%s): %w", p.ID, p.Name, err)
		}
	}
	return nil
}

// Points returns the tracked points with their last computed lit state.
func (m *Map) Points() ([]cities.Point, []bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lit := make([]bool, m.cities.Len())
	for i := range lit {
		lit[i] = m.cities.Lit(i)
	}
	return m.cities.Points(), lit
}

// Close stops the animation and the passive refresh.
func (m *Map) Close() {
	m.clock.Close()
	ctxlog.Logger(m.ctx).Info("daylight map closed")
}
