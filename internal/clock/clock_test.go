package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeAdvanceFiresTicksInOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	var fired []time.Duration
	f.Every(time.Second, func(now time.Time) {
		fired = append(fired, now.Sub(start))
	})

	f.Advance(2500 * time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, fired)
	assert.Equal(t, start.Add(2500*time.Millisecond), f.Now())

	f.Advance(500 * time.Millisecond)
	assert.Len(t, fired, 3)
}

func TestFakeStopRemovesTicker(t *testing.T) {
	f := NewFake(time.Now())

	calls := 0
	var ticker Ticker
	ticker = f.Every(time.Second, func(time.Time) {
		calls++
		if calls == 2 {
			ticker.Stop()
		}
	})

	f.Advance(10 * time.Second)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, f.Active())
}

func TestRealTickerStops(t *testing.T) {
	ticks := make(chan time.Time, 16)
	ticker := Real{}.Every(5*time.Millisecond, func(now time.Time) {
		select {
		case ticks <- now:
		default:
		}
	})

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("ticker never fired")
	}
	ticker.Stop()
	ticker.Stop()
}
