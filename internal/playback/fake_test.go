package playback

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jfmyers9/mpvctl/internal/clock"
	"github.com/jfmyers9/mpvctl/internal/eventloop"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/rs/zerolog"
)

// fakeRemote is a scripted remote player.
type fakeRemote struct {
	mu          sync.Mutex
	snap        mpvremote.Snapshot
	statusErr   error
	sendErr     error
	sent        []mpvremote.Command
	statusCalls int

	// gate, when set, holds Status until it is closed.
	gate chan struct{}
}

func (f *fakeRemote) Status(ctx context.Context) (*mpvremote.Snapshot, error) {
	f.mu.Lock()
	f.statusCalls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	snap := f.snap
	return &snap, nil
}

func (f *fakeRemote) Send(ctx context.Context, cmd mpvremote.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	return f.sendErr
}

func (f *fakeRemote) setSnapshot(s mpvremote.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = s
}

func (f *fakeRemote) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, c := range f.sent {
		out[i] = c.String()
	}
	return out
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

var errUnauthorized = &mpvremote.Error{Op: "command", StatusCode: http.StatusUnauthorized}

type fakeSlider struct {
	positions []float64
}

func (s *fakeSlider) SetPosition(fraction float64) {
	s.positions = append(s.positions, fraction)
}

type harness struct {
	t        *testing.T
	loop     *eventloop.Loop
	mock     *clock.Mock
	remote   *fakeRemote
	slider   *fakeSlider
	rec      *Reconciler
	surfaced []mpvremote.ServerError
	changes  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mock := clock.NewMock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	loop := eventloop.New(mock, zerolog.Nop())
	t.Cleanup(loop.Close)

	h := &harness{
		t:      t,
		loop:   loop,
		mock:   mock,
		remote: &fakeRemote{},
		slider: &fakeSlider{},
	}
	h.rec = New(loop, h.remote, NewErrorTracker(), Options{
		Slider: h.slider,
		OnChange: func(State) {
			h.changes++
		},
		OnServerError: func(e mpvremote.ServerError) {
			h.surfaced = append(h.surfaced, e)
		},
	}, zerolog.Nop())
	return h
}

// do runs fn on the loop and waits for everything it started.
func (h *harness) do(fn func()) {
	h.loop.Post(fn)
	h.loop.Settle()
}

// advance moves time forward in 100ms steps, settling after each.
func (h *harness) advance(d time.Duration) {
	const step = 100 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		h.mock.Advance(step)
		h.loop.Settle()
	}
}

// load syncs a loaded snapshot into the reconciler.
func (h *harness) load(snap mpvremote.Snapshot) {
	snap.Loaded = true
	h.remote.setSnapshot(snap)
	h.do(h.rec.Sync)
}
