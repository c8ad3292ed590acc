package synthesis

import (
	"sync"
	"time"
)

// Clock abstracts time for deterministic throttle tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Throttle enforces a minimum interval between calls, process-wide for
// whoever shares the instance. It is cooperative: Wait blocks until the
// interval since the previous call has elapsed, then stamps the new call.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	clock    Clock
}

func NewThrottle(interval time.Duration, clock Clock) *Throttle {
	if clock == nil {
		clock = realClock{}
	}
	return &Throttle{interval: interval, clock: clock}
}

// Wait blocks until the minimum interval has passed since the last call and
// records this call as the new reference point.
func (t *Throttle) Wait() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if !t.last.IsZero() {
		if gap := t.interval - now.Sub(t.last); gap > 0 {
			t.clock.Sleep(gap)
			now = now.Add(gap)
		}
	}
	t.last = now
}
