package service

import (
	"sync/atomic"
	"time"
)

// Timer runs a function once after a delay unless stopped first.
type Timer struct {
	t       *time.Timer
	fired   atomic.Bool
	stopped atomic.Bool
}

// StartTimer schedules fn to run after d on its own goroutine.
func StartTimer(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		if tm.stopped.Load() {
			return
		}
		tm.fired.Store(true)
		fn()
	})
	return tm
}

// Stop cancels the timer. It reports whether the call prevented fn from
// running. Stopping a fired timer is a no-op.
func (tm *Timer) Stop() bool {
	tm.stopped.Store(true)
	return tm.t.Stop()
}

// Fired reports whether fn has been invoked.
func (tm *Timer) Fired() bool {
	return tm.fired.Load()
}
