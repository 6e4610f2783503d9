package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/echoflaresat/daylightmap/clock"
)

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeTickers struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	periods []time.Duration
}

func (f *fakeTickers) factory(d time.Duration) clock.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	f.periods = append(f.periods, d)
	return t
}

func (f *fakeTickers) get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[i]
}

func (f *fakeTickers) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// recorder collects advances and signals each one on a channel.
type recorder struct {
	mu       sync.Mutex
	advances []clock.Advance
	ch       chan clock.Advance
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan clock.Advance, 1024)}
}

func (r *recorder) handle(a clock.Advance) {
	r.mu.Lock()
	r.advances = append(r.advances, a)
	r.mu.Unlock()
	r.ch <- a
}

func (r *recorder) wait(t *testing.T) clock.Advance {
	t.Helper()
	select {
	case a := <-r.ch:
		return a
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an advance")
		return clock.Advance{}
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.advances)
}

var epoch = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

func newClock(opts clock.Options) (*clock.Clock, *fakeTickers, *recorder) {
	ft := &fakeTickers{}
	rec := newRecorder()
	c := clock.New(epoch, opts, rec.handle, clock.WithTickerFactory(ft.factory))
	return c, ft, rec
}

func TestStartTwiceCreatesOneTicker(t *testing.T) {
	c, ft, _ := newClock(clock.Options{TickInterval: 400 * time.Millisecond})
	defer c.Close()

	if !c.Start(10 * time.Minute) {
		t.Fatal("first Start returned false")
	}
	if c.Start(10 * time.Minute) {
		t.Error("second Start returned true")
	}
	if got := ft.len(); got != 1 {
		t.Errorf("tickers = %d, want 1", got)
	}
	if got := ft.periods[0]; got != 400*time.Millisecond {
		t.Errorf("tick period = %v", got)
	}
	if got := c.State(); got != clock.Running {
		t.Errorf("state = %v, want running", got)
	}
}

func TestTicksAccumulateExactly(t *testing.T) {
	c, ft, rec := newClock(clock.Options{TickInterval: time.Millisecond})
	defer c.Close()

	c.Start(10 * time.Minute)
	tk := ft.get(0)
	for i := 0; i < 100; i++ {
		tk.c <- time.Time{}
		a := rec.wait(t)
		if !a.Animate || a.Source != clock.SourceTick || a.Increment != 10*time.Minute {
			t.Fatalf("tick %d: unexpected advance %+v", i, a)
		}
	}
	want := epoch.Add(1000 * time.Minute)
	if got := c.Now(); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestStopReleasesTicker(t *testing.T) {
	c, ft, rec := newClock(clock.Options{TickInterval: time.Millisecond})
	defer c.Close()

	c.Start(time.Minute)
	tk := ft.get(0)
	tk.c <- time.Time{}
	rec.wait(t)

	c.Stop()
	if !tk.isStopped() {
		t.Error("ticker not stopped after Stop returned")
	}
	if got := c.State(); got != clock.Idle {
		t.Errorf("state = %v, want idle", got)
	}
	// Nobody reads the channel any more.
	select {
	case tk.c <- time.Time{}:
		t.Error("tick delivered after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	if got := rec.count(); got != 1 {
		t.Errorf("advances = %d, want 1", got)
	}

	c.Stop()
	if !c.Start(time.Minute) {
		t.Error("Start after Stop returned false")
	}
	if got := ft.len(); got != 2 {
		t.Errorf("tickers = %d, want 2", got)
	}
}

func TestSkip(t *testing.T) {
	c, ft, rec := newClock(clock.Options{TickInterval: time.Millisecond})
	defer c.Close()

	got := c.Skip(time.Hour, true)
	if want := epoch.Add(time.Hour); !got.Equal(want) {
		t.Errorf("Skip = %v, want %v", got, want)
	}
	a := rec.wait(t)
	if a.Source != clock.SourceSkip || !a.Animate {
		t.Errorf("advance = %+v", a)
	}
	if c.State() != clock.Idle {
		t.Error("Skip changed the state")
	}
	if ft.len() != 0 {
		t.Error("Skip created a ticker")
	}

	c.Skip(-2*time.Hour, false)
	if want := epoch.Add(-time.Hour); !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}
}

func TestSet(t *testing.T) {
	c, _, rec := newClock(clock.Options{})
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	c.Set(at)
	a := rec.wait(t)
	if a.Source != clock.SourceSet || !a.Time.Equal(at) || a.Increment != 0 {
		t.Errorf("advance = %+v", a)
	}
	if !c.Now().Equal(at) {
		t.Errorf("Now() = %v", c.Now())
	}
}

func TestRefresh(t *testing.T) {
	c, ft, rec := newClock(clock.Options{
		TickInterval:     time.Millisecond,
		RefreshInterval:  time.Minute,
		RefreshIncrement: time.Minute,
	})
	defer c.Close()

	if !c.StartRefresh() {
		t.Fatal("StartRefresh returned false")
	}
	if c.StartRefresh() {
		t.Error("second StartRefresh returned true")
	}
	refresh := ft.get(0)

	refresh.c <- time.Time{}
	a := rec.wait(t)
	if a.Source != clock.SourceRefresh || a.Animate || a.Increment != time.Minute {
		t.Errorf("advance = %+v", a)
	}

	// While running, refreshes do nothing.
	c.Start(10 * time.Minute)
	refresh.c <- time.Time{}
	anim := ft.get(1)
	anim.c <- time.Time{}
	if a := rec.wait(t); a.Source != clock.SourceTick {
		t.Errorf("advance while running = %+v", a)
	}
	if want := epoch.Add(11 * time.Minute); !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}

	c.Close()
	if !refresh.isStopped() || !anim.isStopped() {
		t.Error("Close left a ticker running")
	}
}

func TestRefreshDisabled(t *testing.T) {
	c, ft, _ := newClock(clock.Options{})
	if c.StartRefresh() {
		t.Error("StartRefresh with zero interval returned true")
	}
	if ft.len() != 0 {
		t.Error("ticker created")
	}
	c.Close()
}

func TestStopFromOtherGoroutineDuringTicks(t *testing.T) {
	ft := &fakeTickers{}
	var mu sync.Mutex
	n := 0
	c := clock.New(epoch, clock.Options{TickInterval: time.Millisecond}, func(clock.Advance) {
		mu.Lock()
		n++
		mu.Unlock()
	}, clock.WithTickerFactory(ft.factory))

	c.Start(time.Minute)
	tk := ft.get(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			select {
			case tk.c <- time.Time{}:
			case <-time.After(50 * time.Millisecond):
				return
			}
		}
	}()
	c.Stop()
	<-done

	mu.Lock()
	before := n
	mu.Unlock()
	if got := c.Now(); !got.Equal(epoch.Add(time.Duration(before) * time.Minute)) {
		t.Errorf("Now() = %v after %d ticks", got, before)
	}
}
