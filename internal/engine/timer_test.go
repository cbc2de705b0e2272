package engine_test

import (
	"testing"
	"time"

	"assessment-engine/internal/engine"
)

// manualTicker lets tests deliver ticks without wall-clock waits.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker(buffer int) *manualTicker {
	return &manualTicker{ch: make(chan time.Time, buffer)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}
func (m *manualTicker) Tick()               { m.ch <- time.Time{} }

func tickerFactory(m *manualTicker) engine.NewTickerFunc {
	return func(time.Duration) engine.Ticker { return m }
}

func TestCountdownPauseResumePreservesTime(t *testing.T) {
	mt := newManualTicker(0)
	ticks := make(chan int, 128)
	c := engine.NewCountdown(120, func(remaining int) { ticks <- remaining }, nil, tickerFactory(mt))

	c.Start()
	for i := 0; i < 10; i++ {
		mt.Tick()
		<-ticks
	}
	c.Pause()
	if got := c.Remaining(); got != 110 {
		t.Fatalf("after 10 ticks expected 110 remaining, got %d", got)
	}

	c.Start()
	for i := 0; i < 5; i++ {
		mt.Tick()
		<-ticks
	}
	if got := c.Remaining(); got != 105 {
		t.Fatalf("after resume and 5 more ticks expected 105 remaining, got %d", got)
	}
}

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	mt := newManualTicker(8)
	expired := make(chan struct{}, 8)
	c := engine.NewCountdown(2, nil, func() { expired <- struct{}{} }, tickerFactory(mt))

	c.Start()
	mt.Tick()
	mt.Tick()
	<-expired

	// Extra ticks after expiry must not re-fire.
	mt.Tick()
	mt.Tick()
	// Starting an expired countdown is a no-op.
	c.Start()
	mt.Tick()

	select {
	case <-expired:
		t.Fatalf("expiry fired more than once")
	case <-time.After(50 * time.Millisecond):
	}
	if got := c.Remaining(); got != 0 {
		t.Fatalf("expected 0 remaining after expiry, got %d", got)
	}
	if !c.Expired() {
		t.Fatalf("expected countdown to report expired")
	}
}

func TestCountdownUntimedNeverTicks(t *testing.T) {
	ticked := make(chan int, 1)
	c := engine.NewCountdown(0, func(remaining int) { ticked <- remaining }, nil, nil)
	c.Start()

	select {
	case <-ticked:
		t.Fatalf("untimed countdown must not tick")
	case <-time.After(20 * time.Millisecond):
	}
	if c.Expired() {
		t.Fatalf("untimed countdown must not expire")
	}
}

func TestCountdownStopWithoutExpiry(t *testing.T) {
	mt := newManualTicker(4)
	expired := make(chan struct{}, 1)
	c := engine.NewCountdown(30, nil, func() { expired <- struct{}{} }, tickerFactory(mt))

	c.Start()
	c.Stop()
	mt.Tick()

	select {
	case <-expired:
		t.Fatalf("stop must not fire expiry")
	case <-time.After(20 * time.Millisecond):
	}
	// Stopped countdowns cannot restart.
	c.Start()
	if !c.Expired() {
		t.Fatalf("expected stop to be terminal")
	}
}
