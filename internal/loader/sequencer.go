// Package loader drives a media load on the remote player from the open
// command through status polling to a terminal outcome.
package loader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/mpvctl/internal/eventloop"
	"github.com/jfmyers9/mpvctl/internal/history"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/rs/zerolog"
)

// PollTimer is the event loop timer name used while polling.
const PollTimer = "poll"

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultTimeout      = 31 * time.Second
)

// Remote is the part of the remote player client the sequencer uses.
type Remote interface {
	Status(ctx context.Context) (*mpvremote.Snapshot, error)
	Send(ctx context.Context, cmd mpvremote.Command) error
	Upload(ctx context.Context, filename string, r io.Reader) (*mpvremote.Upload, error)
}

// Target receives the outcome of a load. *playback.Reconciler implements it.
type Target interface {
	Apply(snap *mpvremote.Snapshot)
	ReportError(e mpvremote.ServerError) bool
	Errors() *playback.ErrorTracker
}

// Recorder stores successful loads.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
}

// Options configures a Sequencer. Callbacks run on the event loop.
type Options struct {
	PollInterval time.Duration
	// Timeout is how long polling may go on without a terminal snapshot.
	Timeout time.Duration
	// StrictSources rejects sources that would break out of the quoted
	// open argument.
	StrictSources bool

	History  Recorder
	OnChange func(Status)
}

// Sequencer owns the single active load request. Every method must be
// called on the event loop.
type Sequencer struct {
	loop   *eventloop.Loop
	remote Remote
	target Target
	opts   Options
	logger zerolog.Logger

	status   Status
	poll     *eventloop.Timer
	inflight bool
	stopped  bool
	// baseline is the last error time known before open was sent.
	baseline float64
	// unbased is set when no baseline could be read before open. The
	// first successful poll supplies it instead.
	unbased bool
}

// New creates an idle Sequencer.
func New(loop *eventloop.Loop, remote Remote, target Target, opts Options, logger zerolog.Logger) *Sequencer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Sequencer{
		loop:   loop,
		remote: remote,
		target: target,
		opts:   opts,
		logger: logger.With().Str("component", "loader").Logger(),
	}
}

// Status returns the current request state.
func (s *Sequencer) Status() Status {
	return s.status
}

// RequestLoad asks the player to open source, paused. It returns false
// without doing anything while another request is active.
func (s *Sequencer) RequestLoad(source string) bool {
	if s.status.Phase.Active() {
		s.logger.Debug().Str("source", source).Msg("Load already in progress, ignoring request")
		return false
	}

	s.begin(Pending, source)
	s.open()
	return true
}

// Upload sends r to the server and then loads the stored copy. It
// returns false without doing anything while another request is active.
func (s *Sequencer) Upload(filename string, r io.Reader) bool {
	if s.status.Phase.Active() {
		s.logger.Debug().Str("file", filename).Msg("Load already in progress, ignoring upload")
		return false
	}

	s.begin(Uploading, "")
	id := s.status.ID

	var up *mpvremote.Upload
	var err error
	s.loop.Go(func(ctx context.Context) {
		up, err = s.remote.Upload(ctx, filename, r)
	}, func() {
		if id != s.status.ID {
			return
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("file", filename).Msg("Upload failed")
			s.finish(Failed, MsgUploadFailed)
			return
		}
		s.logger.Info().Str("file", filename).Str("url", up.URL).Msg("Upload complete")
		s.status.Phase = Pending
		s.status.Source = up.URL
		s.notify()
		s.open()
	})
	return true
}

// Stop cancels polling for good. The request keeps its current phase.
func (s *Sequencer) Stop() {
	s.stopped = true
	s.stopPoll()
}

func (s *Sequencer) begin(phase Phase, source string) {
	s.stopPoll()
	s.inflight = false
	s.unbased = false
	s.status = Status{
		Phase:  phase,
		ID:     uuid.NewString(),
		Source: source,
	}
	s.logger.Info().
		Str("request", s.status.ID).
		Str("source", source).
		Str("phase", phase.String()).
		Msg("Load requested")
	s.notify()
}

// open sends the open command for the current source.
func (s *Sequencer) open() {
	id := s.status.ID
	source := s.status.Source

	if s.opts.StrictSources {
		if err := mpvremote.ValidateSource(source); err != nil {
			s.logger.Warn().Err(err).Str("request", id).Msg("Rejected source")
			s.finish(Failed, MsgInvalidSource)
			return
		}
	}

	s.prime(func() {
		if id != s.status.ID {
			return
		}
		tracker := s.target.Errors()
		s.baseline = tracker.Last()
		s.unbased = !tracker.Seeded()

		var err error
		s.loop.Go(func(ctx context.Context) {
			err = s.remote.Send(ctx, mpvremote.Open(source))
		}, func() {
			if id != s.status.ID {
				return
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("request", id).Msg("Open rejected")
				if errors.Is(err, mpvremote.ErrUnauthorized) {
					s.finish(Failed, MsgUnauthorized)
				} else {
					s.finish(Failed, MsgError)
				}
				return
			}
			s.startPolling()
		})
	})
}

// prime makes sure the error tracker has a baseline before the first
// open of a session, so an error the server is still echoing from
// before is not mistaken for this load's failure.
func (s *Sequencer) prime(next func()) {
	tracker := s.target.Errors()
	if tracker.Seeded() {
		next()
		return
	}

	var snap *mpvremote.Snapshot
	var err error
	s.loop.Go(func(ctx context.Context) {
		snap, err = s.remote.Status(ctx)
	}, func() {
		if err == nil {
			tracker.Seed(snap.Error)
		}
		next()
	})
}

func (s *Sequencer) startPolling() {
	s.status.Phase = Polling
	s.status.Started = s.loop.Now()
	s.logger.Debug().Str("request", s.status.ID).Msg("Open acknowledged, polling")
	s.notify()
	s.schedule()
}

// schedule arms the next poll tick. The last tick before the deadline
// is shortened so the timeout is noticed as soon as it passes.
func (s *Sequencer) schedule() {
	if s.stopped {
		return
	}
	next := s.opts.PollInterval
	deadline := s.status.Started.Add(s.opts.Timeout + time.Millisecond)
	if remaining := deadline.Sub(s.loop.Now()); remaining < next {
		next = remaining
	}
	if next < 0 {
		next = 0
	}
	s.poll = s.loop.AfterFunc(PollTimer, next, s.tick)
}

func (s *Sequencer) tick() {
	s.poll = nil
	if s.status.Phase != Polling {
		return
	}

	if s.loop.Now().Sub(s.status.Started) > s.opts.Timeout {
		s.finish(TimedOut, MsgTimeout)
		return
	}

	if !s.inflight {
		s.fetch()
	}
	s.schedule()
}

func (s *Sequencer) fetch() {
	s.inflight = true
	id := s.status.ID

	var snap *mpvremote.Snapshot
	var err error
	s.loop.Go(func(ctx context.Context) {
		snap, err = s.remote.Status(ctx)
	}, func() {
		if id != s.status.ID {
			return
		}
		s.inflight = false
		if s.status.Phase != Polling {
			return
		}
		if err != nil {
			s.logger.Debug().Err(err).Str("request", id).Msg("Poll failed")
			return
		}
		s.handle(snap)
	})
}

func (s *Sequencer) handle(snap *mpvremote.Snapshot) {
	if s.unbased {
		tracker := s.target.Errors()
		tracker.Seed(snap.Error)
		s.baseline = tracker.Last()
		s.unbased = false
	}

	switch {
	case snap.Loaded:
		s.stopPoll()
		s.target.Apply(snap)
		s.finish(Loaded, "")
		s.record(snap)
	case !snap.Error.IsZero() && snap.Error.Time != s.baseline:
		s.stopPoll()
		s.target.ReportError(snap.Error)
		s.finish(Failed, snap.Error.Message)
	}
}

// finish moves to a terminal phase. Polling is always stopped first.
func (s *Sequencer) finish(phase Phase, message string) {
	s.stopPoll()
	s.status.Phase = phase
	s.status.Message = message

	event := s.logger.Info()
	if phase != Loaded {
		event = s.logger.Warn()
	}
	event.
		Str("request", s.status.ID).
		Str("source", s.status.Source).
		Str("phase", phase.String()).
		Str("message", message).
		Msg("Load finished")
	s.notify()
}

func (s *Sequencer) stopPoll() {
	if s.poll == nil {
		return
	}
	s.poll.Stop()
	s.poll = nil
}

// record stores a successful load off the loop.
func (s *Sequencer) record(snap *mpvremote.Snapshot) {
	if s.opts.History == nil {
		return
	}

	entry := history.Entry{
		Source:   s.status.Source,
		Name:     snap.DisplayName(),
		Duration: time.Duration(snap.Duration * float64(time.Second)),
		LoadedAt: s.loop.Now(),
	}
	var err error
	s.loop.Go(func(ctx context.Context) {
		_, err = s.opts.History.Record(ctx, entry)
	}, func() {
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to record load history")
		}
	})
}

func (s *Sequencer) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.status)
	}
}
