package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jfmyers9/mpvctl/internal/clock"
	"github.com/rs/zerolog"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLoop() (*Loop, *clock.Mock) {
	mock := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(mock, zerolog.Nop()), mock
}

// advance steps the mock clock in small increments, draining the loop
// after each step so repeating timers get re-armed.
func advance(l *Loop, mock *clock.Mock, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		mock.Advance(step)
		l.Settle()
	}
}

func TestLoop_PostRunsInOrder(t *testing.T) {
	l, _ := newTestLoop()
	var got []int

	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })

	if ran := l.RunPending(); ran != 3 {
		t.Errorf("expected 3 handlers to run, got %d", ran)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("unexpected order %v", got)
	}
}

func TestLoop_GoContinuesOnLoop(t *testing.T) {
	l, _ := newTestLoop()
	defer l.Close()

	var result int
	var workRan atomic.Bool
	l.Go(func(ctx context.Context) {
		workRan.Store(true)
		result = 42
	}, func() {
		result++
	})

	l.Settle()

	if !workRan.Load() {
		t.Fatal("work did not run")
	}
	if result != 43 {
		t.Errorf("expected 43, got %d", result)
	}
}

func TestLoop_CloseCancelsWork(t *testing.T) {
	l, _ := newTestLoop()

	cancelled := false
	l.Go(func(ctx context.Context) {
		<-ctx.Done()
	}, func() {
		cancelled = true
	})

	l.Close()
	l.Settle()

	if !cancelled {
		t.Error("continuation did not run after Close")
	}
}

func TestLoop_DrainWaitsForWork(t *testing.T) {
	l, _ := newTestLoop()

	release := make(chan struct{})
	var finished, continued atomic.Bool
	l.Go(func(ctx context.Context) {
		<-release
		finished.Store(ctx.Err() == nil)
	}, func() {
		continued.Store(true)
	})

	time.AfterFunc(20*time.Millisecond, func() { close(release) })

	if !l.Drain(time.Second) {
		t.Fatal("Drain timed out")
	}
	if !finished.Load() {
		t.Error("work should finish before its context is cancelled")
	}
	if !continued.Load() {
		t.Error("continuation should run during Drain")
	}
}

func TestLoop_DrainTimeoutCancelsWork(t *testing.T) {
	l, _ := newTestLoop()

	var cancelled atomic.Bool
	l.Go(func(ctx context.Context) {
		<-ctx.Done()
		cancelled.Store(true)
	}, nil)

	if l.Drain(20 * time.Millisecond) {
		t.Fatal("Drain should report the timeout")
	}

	// Close has run; the work observes cancellation.
	l.Settle()
	if !cancelled.Load() {
		t.Error("work should be cancelled after the timeout")
	}
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	l, _ := newTestLoop()
	ran := false

	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	l.RunPending()

	if !ran {
		t.Error("handler after panic did not run")
	}
}

func TestLoop_Run(t *testing.T) {
	l := New(nil, zerolog.Nop())
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("posted handler did not run")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTimer_AfterFunc(t *testing.T) {
	l, mock := newTestLoop()
	fired := 0

	l.Post(func() {
		l.AfterFunc("once", time.Second, func() { fired++ })
	})
	l.Settle()

	if l.ActiveTimers("once") != 1 {
		t.Fatalf("expected 1 active timer, got %d", l.ActiveTimers("once"))
	}

	advance(l, mock, 3*time.Second, 100*time.Millisecond)

	if fired != 1 {
		t.Errorf("expected 1 fire, got %d", fired)
	}
	if l.ActiveTimers("once") != 0 {
		t.Errorf("expected 0 active timers, got %d", l.ActiveTimers("once"))
	}
}

func TestTimer_Every(t *testing.T) {
	l, mock := newTestLoop()
	ticks := 0
	var timer *Timer

	l.Post(func() {
		timer = l.Every("tick", time.Second, func() { ticks++ })
	})
	l.Settle()

	advance(l, mock, 5*time.Second, 100*time.Millisecond)
	if ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", ticks)
	}

	l.Post(timer.Stop)
	l.Settle()
	advance(l, mock, 5*time.Second, 100*time.Millisecond)

	if ticks != 5 {
		t.Errorf("expected no ticks after Stop, got %d", ticks)
	}
	if l.ActiveTimers("tick") != 0 {
		t.Errorf("expected 0 active timers, got %d", l.ActiveTimers("tick"))
	}
	if mock.Pending() != 0 {
		t.Errorf("expected no pending clock timers, got %d", mock.Pending())
	}
}

func TestTimer_StopDropsQueuedTick(t *testing.T) {
	l, mock := newTestLoop()
	fired := false
	var timer *Timer

	l.Post(func() {
		timer = l.AfterFunc("once", time.Second, func() { fired = true })
	})
	l.Settle()

	// The tick is queued on the loop but not yet run.
	mock.Advance(time.Second)
	timer.Stop()
	l.Settle()

	if fired {
		t.Error("stopped timer ran its queued tick")
	}
}

func TestTimer_StopNil(t *testing.T) {
	var timer *Timer
	timer.Stop()
	if timer.Active() {
		t.Error("nil timer reported active")
	}
}
