package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jfmyers9/mpvctl/internal/loader"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/internal/session"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"golang.org/x/sync/errgroup"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withSession runs a session for as long as fn runs. The session is
// shut down, and its state saved, before withSession returns.
func withSession(ctx context.Context, a *app, hooks session.Hooks, fn func(ctx context.Context, s *session.Session) error) error {
	s, err := session.New(a.sessionConfig(), a.client, hooks, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return fn(gctx, s)
	})

	err = g.Wait()

	if serr := s.Shutdown(); serr != nil {
		a.logger.Warn().Err(serr).Msg("Failed to shut down session cleanly")
	}

	return err
}

// loadResult is what a load ended with.
type loadResult struct {
	status loader.Status
	state  playback.State
}

// awaitLoad starts a load with start and waits until it finishes. With
// play set, playback is resumed once the media is loaded.
func awaitLoad(ctx context.Context, a *app, play bool, start func(seq *loader.Sequencer) bool) (loadResult, error) {
	var result loadResult

	hooks := session.Hooks{
		OnLoad: func(st loader.Status) {
			a.logger.Debug().Str("phase", st.Phase.String()).Str("source", st.Source).Msg("Load status")
		},
		OnCommandError: func(cmd mpvremote.Command, err error) {
			a.logger.Warn().Err(err).Str("command", cmd.Verb()).Msg("Command failed")
		},
	}

	err := withSession(ctx, a, hooks, func(ctx context.Context, s *session.Session) error {
		started := make(chan bool, 1)
		s.Do(func() { started <- start(s.Loader()) })
		select {
		case ok := <-started:
			if !ok {
				return fmt.Errorf("another load is already in progress")
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := s.Await(ctx, func() bool {
			result.status = s.Loader().Status()
			result.state = s.Playback().State()
			return result.status.Phase.Terminal()
		}); err != nil {
			return err
		}

		if result.status.Phase != loader.Loaded {
			return loadFailed(result.status)
		}
		if !play {
			return nil
		}

		s.Do(func() { s.Playback().SetPaused(false) })
		if err := s.Await(ctx, func() bool {
			result.state = s.Playback().State()
			return result.state.Phase() != playback.Paused
		}); err != nil {
			return err
		}
		if result.state.Phase() != playback.Playing {
			return fmt.Errorf("loaded %s but failed to start playback", result.state.DisplayName())
		}
		return nil
	})

	return result, err
}

func loadFailed(st loader.Status) error {
	if st.Phase == loader.TimedOut {
		return fmt.Errorf("failed to load %s: %s", st.Source, loader.MsgTimeout)
	}
	if st.Source == "" {
		return fmt.Errorf("failed to load: %s", st.Message)
	}
	return fmt.Errorf("failed to load %s: %s", st.Source, st.Message)
}
