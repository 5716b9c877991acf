// Package session wires the event loop, the playback reconciler and the
// load sequencer together for one connection to a remote player.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jfmyers9/mpvctl/internal/clock"
	"github.com/jfmyers9/mpvctl/internal/eventloop"
	"github.com/jfmyers9/mpvctl/internal/history"
	"github.com/jfmyers9/mpvctl/internal/loader"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultHistoryMaxAge is how long load history is kept.
const DefaultHistoryMaxAge = 90 * 24 * time.Hour

// drainTimeout bounds how long Run waits for requests still in flight
// when it stops.
const drainTimeout = 2 * time.Second

// Config holds session configuration
type Config struct {
	HeartbeatInterval time.Duration // Status sync interval
	TickInterval      time.Duration // Local playback clock interval
	PollInterval      time.Duration // Load status poll interval
	LoadTimeout       time.Duration // Give up on a load after this long
	StrictSources     bool          // Reject sources that break command quoting
	StateFile         string        // Path to state persistence file
	HistoryDB         string        // Path to load history database, empty to disable
	HistoryMaxAge     time.Duration // Drop history older than this on shutdown
	Clock             clock.Clock   // Optional: time source, defaults to system time
}

// Client is the remote player client a session drives.
type Client interface {
	playback.Remote
	loader.Remote
	BaseURL() string
	Cookies() []*http.Cookie
}

// Hooks are notified of session events. All hooks run on the event loop
// and must not block.
type Hooks struct {
	Slider         playback.Slider
	OnPlayback     func(playback.State)
	OnLoad         func(loader.Status)
	OnServerError  func(mpvremote.ServerError)
	OnCommandError func(mpvremote.Command, error)
}

// Session coordinates the reconciler, the sequencer and persistence.
type Session struct {
	config     Config
	client     Client
	hooks      Hooks
	loop       *eventloop.Loop
	reconciler *playback.Reconciler
	sequencer  *loader.Sequencer
	history    *history.Store
	state      *State
	logger     zerolog.Logger

	mu      sync.Mutex
	changed chan struct{}
}

// New creates a new Session.
func New(cfg Config, client Client, hooks Hooks, logger zerolog.Logger) (*Session, error) {
	logger = logger.With().Str("component", "session").Logger()

	state, err := NewState(cfg.StateFile)
	if err != nil {
		// A broken state file only costs the error baseline.
		logger.Warn().Err(err).Str("path", cfg.StateFile).Msg("Failed to restore state, starting fresh")
	}

	var store *history.Store
	if cfg.HistoryDB != "" {
		store, err = history.Open(cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
	}
	if cfg.HistoryMaxAge <= 0 {
		cfg.HistoryMaxAge = DefaultHistoryMaxAge
	}

	s := &Session{
		config:  cfg,
		client:  client,
		hooks:   hooks,
		loop:    eventloop.New(cfg.Clock, logger),
		history: store,
		state:   state,
		logger:  logger,
		changed: make(chan struct{}),
	}

	tracker := playback.NewErrorTracker()
	if p := state.Get(); p.LastErrorTime != nil && p.Server == client.BaseURL() {
		tracker = playback.RestoreErrorTracker(*p.LastErrorTime)
	}

	s.reconciler = playback.New(s.loop, client, tracker, playback.Options{
		HeartbeatInterval: cfg.HeartbeatInterval,
		TickInterval:      cfg.TickInterval,
		Slider:            hooks.Slider,
		OnChange:          s.playbackChanged,
		OnServerError:     s.serverError,
		OnCommandError:    s.commandError,
	}, logger)

	opts := loader.Options{
		PollInterval:  cfg.PollInterval,
		Timeout:       cfg.LoadTimeout,
		StrictSources: cfg.StrictSources,
		OnChange:      s.loadChanged,
	}
	if store != nil {
		opts.History = store
	}
	s.sequencer = loader.New(s.loop, client, s.reconciler, opts, logger)

	return s, nil
}

// Run starts the heartbeat and processes events until ctx is cancelled.
// Every timer is stopped before Run returns.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info().Str("server", s.client.BaseURL()).Msg("Starting session")

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.loop.Post(func() {
			s.reconciler.Stop()
			s.sequencer.Stop()
			stopLoop()
		})
		return nil
	})

	s.loop.Post(s.reconciler.Start)

	err := g.Wait()
	if !s.loop.Drain(drainTimeout) {
		s.logger.Warn().Dur("timeout", drainTimeout).Msg("Abandoned unfinished requests")
	}

	s.logger.Info().Msg("Session stopped")
	return err
}

// Do runs fn on the event loop. fn may use Playback and Loader.
func (s *Session) Do(fn func()) {
	s.loop.Post(fn)
}

// Playback returns the reconciler. Only use it on the event loop.
func (s *Session) Playback() *playback.Reconciler {
	return s.reconciler
}

// Loader returns the sequencer. Only use it on the event loop.
func (s *Session) Loader() *loader.Sequencer {
	return s.sequencer
}

// History returns the load history store, or nil when disabled. It is
// safe to use from any goroutine.
func (s *Session) History() *history.Store {
	return s.history
}

// Await blocks until cond, evaluated on the event loop, returns true.
// cond is re-evaluated after every playback or load change.
func (s *Session) Await(ctx context.Context, cond func() bool) error {
	for {
		changed := s.changedChan()

		result := make(chan bool, 1)
		s.loop.Post(func() { result <- cond() })

		select {
		case ok := <-result:
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown saves persisted state, trims old history and closes the
// history store. Call it after Run has returned.
func (s *Session) Shutdown() error {
	var errs []error

	if err := s.state.SetCookies(s.client.BaseURL(), s.client.Cookies()); err != nil {
		errs = append(errs, fmt.Errorf("failed to save cookies: %w", err))
	}
	if tracker := s.reconciler.Errors(); tracker.Seeded() {
		if err := s.state.SetLastErrorTime(tracker.Last()); err != nil {
			errs = append(errs, fmt.Errorf("failed to save error time: %w", err))
		}
	}

	if s.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, err := s.history.Cleanup(ctx, s.config.HistoryMaxAge)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to clean up history")
		} else if deleted > 0 {
			s.logger.Debug().Int64("deleted", deleted).Msg("Cleaned up old history")
		}
		if err := s.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close history: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ActiveTimers reports live loop timers by name, for diagnostics.
func (s *Session) ActiveTimers(name string) int {
	return s.loop.ActiveTimers(name)
}

func (s *Session) changedChan() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

func (s *Session) broadcast() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

func (s *Session) playbackChanged(st playback.State) {
	s.broadcast()
	if s.hooks.OnPlayback != nil {
		s.hooks.OnPlayback(st)
	}
}

func (s *Session) loadChanged(st loader.Status) {
	s.broadcast()
	if st.Phase == loader.Loaded {
		source := st.Source
		s.loop.Go(func(ctx context.Context) {
			if err := s.state.SetLastSource(source); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to save last source")
			}
		}, nil)
	}
	if s.hooks.OnLoad != nil {
		s.hooks.OnLoad(st)
	}
}

func (s *Session) serverError(e mpvremote.ServerError) {
	at := e.Time
	s.loop.Go(func(ctx context.Context) {
		if err := s.state.SetLastErrorTime(at); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to save error time")
		}
	}, nil)
	if s.hooks.OnServerError != nil {
		s.hooks.OnServerError(e)
	}
}

func (s *Session) commandError(cmd mpvremote.Command, err error) {
	s.broadcast()
	if s.hooks.OnCommandError != nil {
		s.hooks.OnCommandError(cmd, err)
	}
}
