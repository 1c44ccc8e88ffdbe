// Package loop provides the single logical thread that owns form state.
//
// A Loop runs one goroutine that executes dispatched callbacks in FIFO
// order. Everything that mutates form state (user events, debounce timers,
// async completions) is posted with Dispatch, so state is only ever touched
// from the loop goroutine and needs no locks.
//
//	l := loop.New(loop.WithLogger(logger))
//	l.Start()
//	defer l.Close()
//
//	l.Dispatch(func() {
//	    count++ // runs on the loop
//	})
//
// Timers created with Timeout fire on the loop as well:
//
//	cancel := l.Timeout(500*time.Millisecond, func() {
//	    startValidation()
//	})
//	cancel() // stops the timer if it has not fired yet
package loop
