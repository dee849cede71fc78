package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock. Tickers fire synchronously inside Advance,
// in time order, on the caller's goroutine.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func(time.Time)) Ticker {
	if interval <= 0 {
		panic("clock: non-positive interval")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{clock: f, interval: interval, next: f.now.Add(interval), fn: fn}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the clock forward by d, firing every tick that falls due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextDue(target)
		if t == nil {
			break
		}
		f.now = t.next
		t.next = t.next.Add(t.interval)
		now := f.now

		f.mu.Unlock()
		t.fn(now)
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// Active reports how many tickers have not been stopped.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *Fake) nextDue(target time.Time) *fakeTicker {
	var due *fakeTicker
	for _, t := range f.tickers {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	return due
}

func (f *Fake) remove(t *fakeTicker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, other := range f.tickers {
		if other == t {
			f.tickers = append(f.tickers[:i], f.tickers[i+1:]...)
			return
		}
	}
}

type fakeTicker struct {
	clock    *Fake
	interval time.Duration
	next     time.Time
	fn       func(time.Time)
}

func (t *fakeTicker) Stop() {
	t.clock.remove(t)
}
