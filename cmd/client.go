package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jfmyers9/mpvctl/internal/config"
	"github.com/jfmyers9/mpvctl/internal/session"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/rs/zerolog"
)

// app bundles what every command needs: config, logger, persisted
// session state and a client primed with saved cookies.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	state  *session.State
	client *mpvremote.Client
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		cfg.Server.URL = serverURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	return cfg, nil
}

// newApp loads config, sets up logging and builds the remote client.
func newApp() (*app, error) {
	return openApp(false)
}

// openApp is newApp for commands that own the terminal: with quiet set,
// logging is disabled unless it goes to a file.
func openApp(quiet bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if quiet && cfg.Log.File == "" {
		cfg.Log.Level = zerolog.Disabled.String()
	}

	logger := setupLogger(cfg.Log.File, cfg.Log.Level)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	state, err := session.NewState(cfg.StateFile())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to restore state, starting fresh")
	}

	// Saved cookies are keyed by the normalized server root.
	base := cfg.Server.URL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	client, err := mpvremote.NewClient(mpvremote.Config{
		BaseURL:   base,
		Timeout:   cfg.Server.Timeout,
		Cookies:   state.CookiesFor(base),
		Logger:    remoteLogger{logger: logger.With().Str("component", "mpvremote").Logger()},
		UserAgent: "mpvctl/" + version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		state:  state,
		client: client,
	}, nil
}

// saveCookies persists whatever cookies the server handed out.
func (a *app) saveCookies() error {
	if err := a.state.SetCookies(a.client.BaseURL(), a.client.Cookies()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// sessionConfig maps config onto session settings.
func (a *app) sessionConfig() session.Config {
	return session.Config{
		HeartbeatInterval: a.cfg.Sync.HeartbeatInterval,
		TickInterval:      a.cfg.Sync.TickInterval,
		PollInterval:      a.cfg.Sync.PollInterval,
		LoadTimeout:       a.cfg.Sync.LoadTimeout,
		StrictSources:     a.cfg.Sync.StrictSources,
		StateFile:         a.cfg.StateFile(),
		HistoryDB:         a.cfg.HistoryDB(),
	}
}
