package loop

import (
	"sync/atomic"
	"time"
)

// Cancel stops a pending timer. It is safe to call more than once.
type Cancel func()

// Timeout runs fn on the loop after d. The returned Cancel prevents fn from
// running if the timer has not fired yet.
//
// The timer callback runs on a clock goroutine and only dispatches fn. A
// Cancel that races with an already-fired timer can still let fn through,
// so callbacks must check their own state before acting.
func (l *Loop) Timeout(d time.Duration, fn func()) Cancel {
	var fired atomic.Bool
	timer := l.clock.AfterFunc(d, func() {
		if fired.CompareAndSwap(false, true) {
			if err := l.Dispatch(fn); err != nil {
				l.logger.Debug("timer fired after loop close")
			}
		}
	})

	return func() {
		fired.Store(true)
		timer.Stop()
	}
}
