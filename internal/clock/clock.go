// Package clock is the single time source for session timing. The engine reads
// Now and schedules its once-per-interval tick through Every, so tests can
// drive time with Fake instead of sleeping.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned Ticker is stopped.
	Every(interval time.Duration, fn func(time.Time)) Ticker
}

type Ticker interface {
	Stop()
}

// Real is backed by the time package. Readings carry the monotonic clock, so
// durations computed from them are not affected by wall clock changes.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Every(interval time.Duration, fn func(time.Time)) Ticker {
	t := &realTicker{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.loop(fn)
	return t
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTicker) loop(fn func(time.Time)) {
	for {
		select {
		case now := <-t.ticker.C:
			fn(now)
		case <-t.done:
			return
		}
	}
}

func (t *realTicker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
