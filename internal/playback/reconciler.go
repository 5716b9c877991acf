// Package playback keeps the locally rendered player state in step with
// the remote player.
//
// The Reconciler predicts state changes as soon as a command is
// acknowledged, advances playback time on its own clock between polls,
// and corrects itself from a status snapshot every heartbeat.
package playback

import (
	"context"
	"time"

	"github.com/jfmyers9/mpvctl/internal/eventloop"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/rs/zerolog"
)

// Timer names registered on the event loop.
const (
	ClockTimer     = "clock"
	HeartbeatTimer = "heartbeat"
)

const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultTickInterval      = time.Second
)

// Remote is the part of the remote player client the reconciler uses.
type Remote interface {
	Status(ctx context.Context) (*mpvremote.Snapshot, error)
	Send(ctx context.Context, cmd mpvremote.Command) error
}

// Options configures a Reconciler. All callbacks run on the event loop.
type Options struct {
	HeartbeatInterval time.Duration
	TickInterval      time.Duration

	// Slider, if set, is moved whenever the local time changes.
	Slider Slider

	OnChange       func(State)
	OnServerError  func(mpvremote.ServerError)
	OnCommandError func(mpvremote.Command, error)
}

// Reconciler owns the local playback state. Every method must be called
// on the event loop.
type Reconciler struct {
	loop   *eventloop.Loop
	remote Remote
	errors *ErrorTracker
	opts   Options
	logger zerolog.Logger

	state     State
	clock     *eventloop.Timer
	heartbeat *eventloop.Timer
	dragging  bool
	stopped   bool

	// sent counts commands issued. A snapshot requested before the
	// latest command does not reflect it.
	sent uint64
	// epoch is bumped whenever the state is reset by a disable or a new
	// load. Replies issued under an older epoch are dropped.
	epoch uint64
}

// New creates a Reconciler in the Disabled phase.
func New(loop *eventloop.Loop, remote Remote, tracker *ErrorTracker, opts Options, logger zerolog.Logger) *Reconciler {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if tracker == nil {
		tracker = NewErrorTracker()
	}
	return &Reconciler{
		loop:   loop,
		remote: remote,
		errors: tracker,
		opts:   opts,
		logger: logger.With().Str("component", "reconciler").Logger(),
		state:  State{Paused: true},
	}
}

// State returns a copy of the local state.
func (r *Reconciler) State() State {
	return r.state
}

// Phase returns the current playback phase.
func (r *Reconciler) Phase() Phase {
	return r.state.Phase()
}

// Errors returns the shared error tracker.
func (r *Reconciler) Errors() *ErrorTracker {
	return r.errors
}

// Start syncs immediately and then on every heartbeat until Stop.
func (r *Reconciler) Start() {
	r.stopped = false
	r.Sync()
	if r.heartbeat != nil {
		return
	}
	r.heartbeat = r.loop.Every(HeartbeatTimer, r.opts.HeartbeatInterval, r.Sync)
}

// Stop cancels the heartbeat and the local clock. Replies that arrive
// afterwards still update the state but never restart the clock.
func (r *Reconciler) Stop() {
	r.stopped = true
	r.heartbeat.Stop()
	r.heartbeat = nil
	r.stopClock()
}

// Sync fetches a status snapshot and merges it. Failures are logged and
// left for the next heartbeat.
func (r *Reconciler) Sync() {
	r.syncThen(nil)
}

func (r *Reconciler) syncThen(after func()) {
	epoch, sent := r.epoch, r.sent

	var snap *mpvremote.Snapshot
	var err error
	r.loop.Go(func(ctx context.Context) {
		snap, err = r.remote.Status(ctx)
	}, func() {
		switch {
		case err != nil:
			r.logger.Debug().Err(err).Msg("Sync failed")
		case epoch != r.epoch:
			r.logger.Debug().Msg("Dropping snapshot requested before reset")
		default:
			r.merge(snap, sent == r.sent)
		}
		if after != nil {
			after()
		}
	})
}

// Apply merges a snapshot obtained elsewhere, such as the snapshot that
// completed a load. It starts a new epoch.
func (r *Reconciler) Apply(snap *mpvremote.Snapshot) {
	r.epoch++
	r.merge(snap, true)
}

// merge applies snap. When fresh is false the snapshot predates the
// latest command and only its loaded, name and duration are taken.
func (r *Reconciler) merge(snap *mpvremote.Snapshot, fresh bool) {
	r.ReportError(snap.Error)

	r.state.Loaded = snap.Loaded
	r.state.Name = snap.Name
	r.state.Duration = snap.Duration

	switch {
	case !snap.Loaded:
		r.state.Paused = true
		r.setTime(0, !r.dragging)
	case fresh:
		r.state.Paused = snap.Paused
		r.setTime(snap.Time, !r.dragging)
	default:
		r.logger.Debug().Msg("Snapshot predates last command, keeping local time")
		r.setTime(r.state.Time, false)
	}

	r.updateClock()
	r.notify()
}

// ReportError surfaces e if it has not been surfaced before. It reports
// whether e was new.
func (r *Reconciler) ReportError(e mpvremote.ServerError) bool {
	if !r.errors.Offer(e) {
		return false
	}
	r.logger.Warn().
		Int("code", e.Code).
		Str("message", e.Message).
		Msg("Server error")
	if r.opts.OnServerError != nil {
		r.opts.OnServerError(e)
	}
	return true
}

// Disable drops to the Disabled phase: nothing loaded, paused, time
// zero, clock stopped.
func (r *Reconciler) Disable() {
	r.epoch++
	r.state.Loaded = false
	r.state.Paused = true
	r.setTime(0, true)
	r.updateClock()
	r.notify()
}

// SetPaused sends a pause command and applies it once acknowledged.
func (r *Reconciler) SetPaused(paused bool) {
	r.whenLoaded(func() {
		r.send(mpvremote.Pause(paused), func() {
			r.state.Paused = paused
			r.updateClock()
			r.notify()
		})
	})
}

// TogglePause flips the paused flag.
func (r *Reconciler) TogglePause() {
	r.SetPaused(!r.state.Paused)
}

// Move seeks by delta seconds and advances the local time by the same
// amount once acknowledged.
func (r *Reconciler) Move(delta int) {
	r.whenLoaded(func() {
		r.send(mpvremote.Move(delta), func() {
			r.SetTime(r.state.Time+float64(delta), true)
		})
	})
}

// Seek jumps to an absolute position. The slider is left alone since
// it is usually what asked for the seek.
func (r *Reconciler) Seek(seconds float64) {
	r.whenLoaded(func() {
		r.send(mpvremote.Seek(seconds), func() {
			r.SetTime(seconds, false)
		})
	})
}

// SetTime sets the local time, clamped to the duration.
func (r *Reconciler) SetTime(t float64, moveSlider bool) {
	r.setTime(t, moveSlider)
	r.notify()
}

func (r *Reconciler) setTime(t float64, moveSlider bool) {
	r.state.Time = Clamp(t, r.state.Duration)
	if moveSlider && r.opts.Slider != nil {
		r.opts.Slider.SetPosition(r.state.Fraction())
	}
}

// whenLoaded runs fn, syncing first if nothing is known to be loaded.
func (r *Reconciler) whenLoaded(fn func()) {
	if r.state.Loaded {
		fn()
		return
	}
	r.syncThen(fn)
}

func (r *Reconciler) send(cmd mpvremote.Command, onAck func()) {
	r.sent++
	epoch := r.epoch

	var err error
	r.loop.Go(func(ctx context.Context) {
		err = r.remote.Send(ctx, cmd)
	}, func() {
		if epoch != r.epoch {
			r.logger.Debug().Str("command", cmd.Verb()).Msg("Dropping reply issued before reset")
			return
		}
		if err != nil {
			r.logger.Warn().Err(err).Str("command", cmd.Verb()).Msg("Command rejected, disabling playback")
			r.Disable()
			if r.opts.OnCommandError != nil {
				r.opts.OnCommandError(cmd, err)
			}
			return
		}
		onAck()
	})
}

// updateClock runs the local clock exactly while playing and not dragging.
func (r *Reconciler) updateClock() {
	if r.state.Phase() != Playing || r.dragging || r.stopped {
		r.stopClock()
		return
	}
	if r.clock != nil {
		return
	}
	r.clock = r.loop.Every(ClockTimer, r.opts.TickInterval, r.tick)
}

func (r *Reconciler) stopClock() {
	if r.clock == nil {
		return
	}
	r.clock.Stop()
	r.clock = nil
}

func (r *Reconciler) tick() {
	if r.state.Phase() != Playing {
		return
	}
	r.SetTime(r.state.Time+r.opts.TickInterval.Seconds(), true)
}

func (r *Reconciler) notify() {
	if r.opts.OnChange != nil {
		r.opts.OnChange(r.state)
	}
}
