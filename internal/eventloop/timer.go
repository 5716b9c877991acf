package eventloop

import (
	"time"

	"github.com/jfmyers9/mpvctl/internal/clock"
)

// Timer is a named one-shot or repeating loop timer.
//
// A Timer must only be created and stopped from the loop goroutine.
// Its handler runs on the loop. Once stopped, the handler never runs,
// even if its tick was already queued.
type Timer struct {
	loop  *Loop
	name  string
	every time.Duration
	fn    func()

	pending clock.Timer
	done    bool
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(name string, d time.Duration, fn func()) *Timer {
	return l.start(name, d, 0, fn)
}

// Every runs fn on the loop every d, starting d from now.
func (l *Loop) Every(name string, d time.Duration, fn func()) *Timer {
	return l.start(name, d, d, fn)
}

func (l *Loop) start(name string, first, every time.Duration, fn func()) *Timer {
	t := &Timer{loop: l, name: name, every: every, fn: fn}
	l.track(name, 1)
	t.arm(first)
	return t
}

func (t *Timer) arm(d time.Duration) {
	t.pending = t.loop.clock.AfterFunc(d, func() {
		t.loop.Post(t.fire)
	})
}

func (t *Timer) fire() {
	if t.done {
		return
	}
	if t.every > 0 {
		t.arm(t.every)
	} else {
		t.finish()
	}
	t.fn()
}

func (t *Timer) finish() {
	t.done = true
	t.loop.track(t.name, -1)
}

// Stop cancels the timer. Stopping a nil or finished timer is a no-op.
func (t *Timer) Stop() {
	if t == nil || t.done {
		return
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	t.finish()
}

// Active reports whether the timer may still fire.
func (t *Timer) Active() bool {
	return t != nil && !t.done
}
