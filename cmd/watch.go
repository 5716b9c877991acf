package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jfmyers9/mpvctl/internal/loader"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/internal/session"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the server's playback state and log every change",
	Long: `Run a headless session that keeps the local playback state in sync
with the server and logs every transition: media changes, play/pause,
load progress and server errors.

With --metrics-addr, Prometheus metrics are served on /metrics.

Press Ctrl-C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

var (
	playbackPosition = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpvctl_playback_position_seconds",
		Help: "Locally predicted playback position",
	})
	playbackDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpvctl_playback_duration_seconds",
		Help: "Duration of the loaded media",
	})
	playbackPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mpvctl_playback_phase",
		Help: "Playback phase: 0 disabled, 1 paused, 2 playing",
	})
	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpvctl_loads_total",
		Help: "Finished load requests by outcome",
	}, []string{"outcome"}) // loaded|failed|timed out
	serverErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpvctl_server_errors_total",
		Help: "Distinct errors reported by the player",
	})
)

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("metrics-addr")

	ctx, stop := signalContext()
	defer stop()

	w := newWatcher(a.logger)
	hooks := session.Hooks{
		OnPlayback:     w.playback,
		OnLoad:         w.load,
		OnServerError:  w.serverError,
		OnCommandError: w.commandError,
	}

	return withSession(ctx, a, hooks, func(ctx context.Context, s *session.Session) error {
		g, gctx := errgroup.WithContext(ctx)
		if addr != "" {
			g.Go(func() error {
				return serveMetrics(gctx, addr, a.logger)
			})
		}
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
		return g.Wait()
	})
}

// serveMetrics serves /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// watcher logs state transitions. Its hooks run on the event loop.
type watcher struct {
	logger zerolog.Logger
	last   playback.State
	seen   bool
}

func newWatcher(logger zerolog.Logger) *watcher {
	return &watcher{logger: logger.With().Str("component", "watch").Logger()}
}

func (w *watcher) playback(st playback.State) {
	playbackPosition.Set(st.Time)
	playbackDuration.Set(st.Duration)
	playbackPhase.Set(float64(st.Phase()))

	prev := w.last
	w.last = st
	if w.seen && prev.Phase() == st.Phase() && prev.Name == st.Name {
		return
	}
	w.seen = true

	event := w.logger.Info().Str("phase", st.Phase().String())
	if st.Loaded {
		event = event.
			Str("name", st.DisplayName()).
			Str("position", playback.FormatClock(st.Time)).
			Str("duration", playback.FormatClock(st.Duration))
	}
	event.Msg("Playback changed")
}

func (w *watcher) load(st loader.Status) {
	event := w.logger.Info().
		Str("request", st.ID).
		Str("phase", st.Phase.String())
	if st.Source != "" {
		event = event.Str("source", st.Source)
	}
	if st.Message != "" {
		event = event.Str("message", st.Message)
	}
	event.Msg("Load status")

	if st.Phase.Terminal() {
		loadsTotal.WithLabelValues(st.Phase.String()).Inc()
	}
}

func (w *watcher) serverError(e mpvremote.ServerError) {
	serverErrorsTotal.Inc()
	w.logger.Warn().Int("code", e.Code).Str("message", e.Message).Msg("Player reported an error")
}

func (w *watcher) commandError(cmd mpvremote.Command, err error) {
	w.logger.Warn().Err(err).Str("command", cmd.Verb()).Msg("Command failed")
}
