package engine

import (
	"sync"
	"time"
)

// Ticker abstracts time.Ticker so tests can drive ticks without wall-clock
// waits.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc builds the tick source for a running countdown or autosave
// loop.
type NewTickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type countdownState int

const (
	countdownIdle countdownState = iota
	countdownRunning
	countdownDone // expired or stopped; terminal
)

// Countdown decrements a remaining-seconds counter once per second while
// running and fires onExpire exactly once when it reaches zero. Expiry and
// Stop are terminal: a new attempt needs a new countdown. A countdown built
// without a positive duration never ticks. Pause followed by Start resumes
// from the exact remaining value.
type Countdown struct {
	newTicker NewTickerFunc
	onTick    func(remaining int)
	onExpire  func()

	mu        sync.Mutex
	remaining int
	timed     bool
	state     countdownState
	stop      chan struct{}
}

// NewCountdown builds a countdown over the given number of seconds.
// seconds <= 0 means untimed. Callbacks may be nil; they are invoked from the
// countdown's own goroutine without any countdown lock held.
func NewCountdown(seconds int, onTick func(int), onExpire func(), newTicker NewTickerFunc) *Countdown {
	if newTicker == nil {
		newTicker = newRealTicker
	}
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{
		newTicker: newTicker,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: seconds,
		timed:     seconds > 0,
	}
}

// Start begins or resumes ticking. No-op for untimed, already running, or
// terminal countdowns.
func (c *Countdown) Start() {
	c.mu.Lock()
	if !c.timed || c.state != countdownIdle {
		c.mu.Unlock()
		return
	}
	c.state = countdownRunning
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := c.newTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			remaining, expired, ok := c.consume()
			if !ok {
				return
			}
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if expired {
				if c.onExpire != nil {
					c.onExpire()
				}
				return
			}
		}
	}
}

// consume applies one elapsed second. ok is false when this goroutine no
// longer owns the countdown (paused or stopped mid-tick), in which case no
// time is consumed.
func (c *Countdown) consume() (remaining int, expired, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != countdownRunning {
		return 0, false, false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = countdownDone
		return 0, true, true
	}
	return c.remaining, false, true
}

// Pause stops the tick stream without losing remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != countdownRunning {
		return
	}
	c.state = countdownIdle
	close(c.stop)
	c.stop = nil
}

// Stop halts the countdown permanently without firing expiry. Safe to call
// in any state, including after expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == countdownRunning && c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.state = countdownDone
}

// Remaining reports the seconds left on the countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown has reached zero or been stopped.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == countdownDone
}
