// Package trigger holds the small timing primitives the explorer's event
// loop needs: a ticket-based debouncer, a wall-clock timer for background
// goroutines, and monotonically increasing request tokens.
package trigger

import (
	"sync"
	"time"
)

// DefaultSearchDelay is the quiet period before a typed search is applied.
const DefaultSearchDelay = 300 * time.Millisecond

// Ticket identifies one scheduled firing of a Debouncer.
type Ticket uint64

// Debouncer implements cancel-and-reschedule for a single-threaded event loop.
//
// Schedule hands out a ticket; the caller arranges for it to come back after
// Delay (for example with tea.Tick) and asks Due whether it is still the
// latest. Any later Schedule or Cancel makes earlier tickets stale.
type Debouncer struct {
	delay time.Duration
	last  Ticket
}

// NewDebouncer returns a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	return &Debouncer{delay: delay}
}

// Delay is the quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Schedule cancels any pending ticket and returns a new one.
func (d *Debouncer) Schedule() Ticket {
	d.last++
	return d.last
}

// Cancel makes every outstanding ticket stale.
func (d *Debouncer) Cancel() {
	d.last++
}

// Due reports whether t is the most recent ticket and consumes it, so a
// ticket fires at most once.
func (d *Debouncer) Due(t Ticket) bool {
	if t == 0 || t != d.last {
		return false
	}
	d.last++
	return true
}

// Timer is the wall-clock variant for goroutines outside the event loop.
// Each Trigger restarts the countdown; fn runs once the input goes quiet.
type Timer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	t     *time.Timer
}

// NewTimer returns a stopped Timer that calls fn after delay of quiet.
func NewTimer(delay time.Duration, fn func()) *Timer {
	return &Timer{delay: delay, fn: fn}
}

// Trigger (re)starts the countdown.
func (t *Timer) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(t.delay, t.fn)
}

// Stop cancels a pending call. It reports whether one was pending.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t == nil {
		return false
	}
	stopped := t.t.Stop()
	t.t = nil
	return stopped
}
