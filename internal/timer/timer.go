package timer

import (
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Running
	WarningRaised
	Expired
)

// DefaultWarningSec is how many seconds remain when the one-time warning fires.
const DefaultWarningSec = 300

// Controller drives one countdown at a time. Starting a new countdown replaces
// the running one; a stopped countdown never fires its expiry callback, and an
// expired one fires it exactly once.
type Controller struct {
	mu        sync.Mutex
	state     State
	remaining int
	warnAt    int
	interval  time.Duration
	onWarning func()
	onExpire  func()
	stop      chan struct{}
}

type Option func(*Controller)

// WithTickInterval shortens the tick for tests.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

func WithWarningThreshold(sec int) Option {
	return func(c *Controller) { c.warnAt = sec }
}

func New(opts ...Option) *Controller {
	c := &Controller{
		state:    Idle,
		warnAt:   DefaultWarningSec,
		interval: time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start begins a countdown of durationSec seconds. Any countdown already
// running is cancelled first; successive section timers never overlap.
func (c *Controller) Start(durationSec int, onWarning, onExpire func()) {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	stop := make(chan struct{})
	c.stop = stop
	c.state = Running
	c.remaining = durationSec
	c.onWarning = onWarning
	c.onExpire = onExpire
	interval := c.interval
	c.mu.Unlock()

	go c.run(stop, interval)
}

// Stop cancels the countdown. Pending ticks are discarded and the expiry
// callback will not fire.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.state = Idle
	c.onWarning = nil
	c.onExpire = nil
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining is the seconds left on the countdown, zero once expired.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

func (c *Controller) run(stop chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if done := c.tick(stop); done {
				return
			}
		}
	}
}

// tick advances the countdown by one second. Returns true when this goroutine
// should exit, either because the countdown expired or was replaced.
func (c *Controller) tick(stop chan struct{}) bool {
	c.mu.Lock()
	if c.stop != stop {
		// Replaced or stopped between the tick firing and the lock.
		c.mu.Unlock()
		return true
	}
	c.remaining--
	var warn, expire func()
	if c.remaining <= 0 {
		c.state = Expired
		c.remaining = 0
		expire = c.onExpire
		c.stop = nil
	} else if c.state == Running && c.remaining <= c.warnAt {
		c.state = WarningRaised
		warn = c.onWarning
	}
	c.mu.Unlock()

	// Callbacks run outside the lock so they may Stop or Start the controller.
	if warn != nil {
		warn()
	}
	if expire != nil {
		expire()
		return true
	}
	return false
}
