package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// tickInterval is the countdown resolution. Only expiry is authoritative;
// intermediate ticks feed client countdown rendering.
const tickInterval = 100 * time.Millisecond

// roundTimer owns the authoritative remaining time for one active round.
// It runs on its own goroutine and never blocks the caller; onExpire is
// delivered at most once, and Stop prevents any further signal.
type roundTimer struct {
	clock    clockwork.Clock
	deadline time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

func startRoundTimer(clock clockwork.Clock, duration time.Duration, onTick func(remaining time.Duration), onExpire func()) *roundTimer {
	t := &roundTimer{
		clock:    clock,
		deadline: clock.Now().Add(duration),
		stopCh:   make(chan struct{}),
	}
	go t.run(onTick, onExpire)
	return t
}

func (t *roundTimer) run(onTick func(time.Duration), onExpire func()) {
	ticker := t.clock.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case now := <-ticker.Chan():
			remaining := t.deadline.Sub(now)
			if remaining <= 0 {
				select {
				case <-t.stopCh:
					// Stopped between the tick firing and us acting on it.
				default:
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

// Stop cancels the countdown. Safe to call repeatedly and after expiry.
func (t *roundTimer) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}
