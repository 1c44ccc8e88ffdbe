package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
)

// DefaultQueueSize is the dispatch buffer used when none is configured.
const DefaultQueueSize = 256

// ErrClosed is returned when work is posted to a closed loop.
var ErrClosed = errors.New("loop: closed")

// Loop executes dispatched callbacks on a single goroutine.
type Loop struct {
	dispatchCh chan func()
	done       chan struct{}
	stopped    chan struct{}

	clock  clockwork.Clock
	logger *slog.Logger

	started   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once

	// Counters for introspection
	executed atomic.Uint64
	panics   atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used by Timeout. Defaults to the real clock.
func WithClock(c clockwork.Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the dispatch buffer size.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.dispatchCh = make(chan func(), n)
		}
	}
}

// New creates a loop. Call Start to begin processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		dispatchCh: make(chan func(), DefaultQueueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start launches the loop goroutine. Calling Start more than once is a no-op.
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// run is the event loop. It exits when Close is called.
func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)
		case <-l.done:
			return
		}
	}
}

// execute runs fn with panic recovery.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
	l.executed.Add(1)
}

// Dispatch queues fn to run on the loop goroutine.
// It blocks while the queue is full and returns ErrClosed once the loop is
// closed. Dispatch must not be called from the loop goroutine while the
// queue may be full.
func (l *Loop) Dispatch(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.dispatchCh <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Sync blocks until every callback dispatched before the call has run.
func (l *Loop) Sync(ctx context.Context) error {
	ch := make(chan struct{})
	if err := l.Dispatch(func() { close(ch) }); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clock returns the loop's clock.
func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

// Close stops the loop. Queued callbacks that have not started are dropped.
// Close waits for the callback currently executing, if any.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
		if l.started.Load() {
			<-l.stopped
		}
	})
}

// Done returns a channel closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// IsClosed reports whether Close has been called.
func (l *Loop) IsClosed() bool {
	return l.closed.Load()
}

// Stats is a point-in-time view of loop counters.
type Stats struct {
	Executed uint64
	Panics   uint64
	Queued   int
}

// Stats returns the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Executed: l.executed.Load(),
		Panics:   l.panics.Load(),
		Queued:   len(l.dispatchCh),
	}
}
