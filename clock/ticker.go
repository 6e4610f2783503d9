package clock

import "time"

// Ticker is the tick source used by a Clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory returns a new, started Ticker with the given period.
type TickerFactory func(time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker. Non-positive periods are raised to one
// millisecond.
func NewTimeTicker(d time.Duration) Ticker {
	if d <= 0 {
		d = time.Millisecond
	}
	return timeTicker{t: time.NewTicker(d)}
}
