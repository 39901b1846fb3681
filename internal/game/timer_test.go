package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestRoundTimerTicksThenExpiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ticks := make(chan time.Duration, 16)
	expired := make(chan struct{}, 16)

	timer := startRoundTimer(clock, 300*time.Millisecond,
		func(remaining time.Duration) { ticks <- remaining },
		func() { expired <- struct{}{} },
	)
	defer timer.Stop()

	clock.BlockUntil(1)

	clock.Advance(tickInterval)
	if remaining := <-ticks; remaining != 200*time.Millisecond {
		t.Fatalf("expected 200ms remaining, got %v", remaining)
	}
	clock.Advance(tickInterval)
	if remaining := <-ticks; remaining != 100*time.Millisecond {
		t.Fatalf("expected 100ms remaining, got %v", remaining)
	}

	clock.Advance(tickInterval)
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never expired")
	}

	// No second signal after expiry.
	clock.Advance(time.Second)
	select {
	case <-expired:
		t.Fatal("timer expired twice")
	case <-ticks:
		t.Fatal("tick after expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoundTimerStopPreventsSignal(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := make(chan struct{}, 1)

	timer := startRoundTimer(clock, 200*time.Millisecond, nil,
		func() { expired <- struct{}{} },
	)
	clock.BlockUntil(1)
	timer.Stop()
	timer.Stop() // idempotent

	clock.Advance(time.Second)
	select {
	case <-expired:
		t.Fatal("stopped timer still expired")
	case <-time.After(50 * time.Millisecond):
	}
}
