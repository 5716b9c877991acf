// Package eventloop runs handlers one at a time on a single goroutine.
//
// Everything that touches playback or load state is posted to a Loop.
// Remote calls run off the loop through Go and hand their result back
// as a continuation, so no handler ever blocks on the network and no
// two handlers ever overlap.
package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/jfmyers9/mpvctl/internal/clock"
	"github.com/rs/zerolog"
)

// Loop is a single-queue cooperative executor.
type Loop struct {
	clock  clock.Clock
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	queue    []func()
	inflight int
	active   map[string]int
	wake     chan struct{}
}

// New creates a Loop. A nil clock means system time.
func New(clk clock.Clock, logger zerolog.Logger) *Loop {
	if clk == nil {
		clk = clock.Real{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		clock:  clk,
		logger: logger.With().Str("component", "eventloop").Logger(),
		ctx:    ctx,
		cancel: cancel,
		active: make(map[string]int),
		wake:   make(chan struct{}, 1),
	}
}

// Now returns the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn to run on the loop. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work on its own goroutine and then posts then to the loop.
// work receives a context that is cancelled by Close.
func (l *Loop) Go(work func(ctx context.Context), then func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		work(l.ctx)

		l.mu.Lock()
		l.inflight--
		if then != nil {
			l.queue = append(l.queue, then)
		}
		l.mu.Unlock()
		l.signal()
	}()
}

// RunPending runs queued handlers until the queue is empty, including
// handlers queued by the handlers it runs. It returns how many ran.
func (l *Loop) RunPending() int {
	ran := 0
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			l.run(fn)
			ran++
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Handler panicked")
		}
	}()
	fn()
}

// Run processes handlers until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Settle runs handlers until the queue is empty and no Go work is in
// flight. It must not be used while Run is active.
func (l *Loop) Settle() {
	for {
		l.RunPending()

		l.mu.Lock()
		idle := len(l.queue) == 0 && l.inflight == 0
		l.mu.Unlock()
		if idle {
			return
		}
		<-l.wake
	}
}

// Drain finishes up after Run has returned: it runs handlers until no
// Go work is in flight or timeout passes, then cancels whatever is
// still running. It reports whether everything finished in time.
func (l *Loop) Drain(timeout time.Duration) bool {
	defer l.Close()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		l.RunPending()

		l.mu.Lock()
		idle := len(l.queue) == 0 && l.inflight == 0
		l.mu.Unlock()
		if idle {
			return true
		}

		select {
		case <-l.wake:
		case <-deadline.C:
			return false
		}
	}
}

// Close cancels the context handed to in-flight Go work.
func (l *Loop) Close() {
	l.cancel()
}

// ActiveTimers returns the number of live timers created under name.
func (l *Loop) ActiveTimers(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[name]
}

func (l *Loop) track(name string, delta int) {
	l.mu.Lock()
	l.active[name] += delta
	if l.active[name] <= 0 {
		delete(l.active, name)
	}
	l.mu.Unlock()
}
