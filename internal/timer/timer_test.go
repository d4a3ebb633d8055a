package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

const tick = time.Millisecond

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestExpiryFiresExactlyOnce(t *testing.T) {
	c := New(WithTickInterval(tick), WithWarningThreshold(0))
	var fired int32
	c.Start(1, nil, func() { atomic.AddInt32(&fired, 1) })

	waitFor(t, func() bool { return c.State() == Expired })

	// Poll repeatedly after expiry; the callback must not fire again.
	for i := 0; i < 10; i++ {
		_ = c.Remaining()
		_ = c.State()
		time.Sleep(2 * tick)
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("expiry fired %d times, want 1", got)
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining = %d after expiry, want 0", c.Remaining())
	}
}

func TestWarningFiresOnceWhileCrossingThreshold(t *testing.T) {
	c := New(WithTickInterval(tick), WithWarningThreshold(300))
	var warns, expiries int32
	c.Start(400, func() { atomic.AddInt32(&warns, 1) }, func() { atomic.AddInt32(&expiries, 1) })

	waitFor(t, func() bool { return atomic.LoadInt32(&expiries) == 1 })

	if got := atomic.LoadInt32(&warns); got != 1 {
		t.Fatalf("warning fired %d times, want 1 (once at the 300s crossing)", got)
	}
}

func TestStopSuppressesExpiry(t *testing.T) {
	c := New(WithTickInterval(tick), WithWarningThreshold(0))
	var fired int32
	c.Start(3, nil, func() { atomic.AddInt32(&fired, 1) })
	c.Stop()

	time.Sleep(20 * tick)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("cancelled timer fired expiry %d times", got)
	}
	if c.State() != Idle {
		t.Fatalf("state = %v after Stop, want Idle", c.State())
	}
}

func TestRestartReplacesRunningTimer(t *testing.T) {
	c := New(WithTickInterval(tick), WithWarningThreshold(0))
	var first, second int32
	c.Start(100000, nil, func() { atomic.AddInt32(&first, 1) })
	c.Start(1, nil, func() { atomic.AddInt32(&second, 1) })

	waitFor(t, func() bool { return atomic.LoadInt32(&second) == 1 })
	time.Sleep(10 * tick)

	if got := atomic.LoadInt32(&first); got != 0 {
		t.Fatalf("replaced timer fired %d times, want 0", got)
	}
	if got := atomic.LoadInt32(&second); got != 1 {
		t.Fatalf("replacement timer fired %d times, want 1", got)
	}
}

func TestWarningSkippedWhenStartingBelowThreshold(t *testing.T) {
	// A countdown that starts at/below the threshold warns on its first tick,
	// still only once.
	c := New(WithTickInterval(tick), WithWarningThreshold(300))
	var warns int32
	done := make(chan struct{})
	c.Start(5, func() { atomic.AddInt32(&warns, 1) }, func() { close(done) })

	<-done
	if got := atomic.LoadInt32(&warns); got != 1 {
		t.Fatalf("warning fired %d times, want 1", got)
	}
}
