package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Output format template for the now command
	// Default: "{{.Name}} {{.Position}}/{{.Length}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Marquee scrolling for the now command when text exceeds OutputWidth
	MarqueeEnabled   bool
	MarqueeSpeed     int // characters per second
	MarqueeSeparator string

	// DataDir holds session state and load history
	DataDir string

	Server ServerConfig
	Sync   SyncConfig
	Log    LogConfig
}

// ServerConfig holds connection settings for the mpv remote server
type ServerConfig struct {
	URL     string
	Timeout time.Duration
}

// SyncConfig holds timing for the playback reconciler and load sequencer
type SyncConfig struct {
	HeartbeatInterval time.Duration
	TickInterval      time.Duration
	PollInterval      time.Duration
	LoadTimeout       time.Duration
	StrictSources     bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Read from environment variables, MPVCTL_SERVER_URL etc.
	v.SetEnvPrefix("MPVCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		OutputFormat:     v.GetString("output_format"),
		OutputWidth:      v.GetInt("output_width"),
		MarqueeEnabled:   v.GetBool("marquee_enabled"),
		MarqueeSpeed:     v.GetInt("marquee_speed"),
		MarqueeSeparator: v.GetString("marquee_separator"),
		DataDir:          v.GetString("data_dir"),
		Server: ServerConfig{
			URL:     v.GetString("server.url"),
			Timeout: v.GetDuration("server.timeout"),
		},
		Sync: SyncConfig{
			HeartbeatInterval: v.GetDuration("sync.heartbeat_interval"),
			TickInterval:      v.GetDuration("sync.tick_interval"),
			PollInterval:      v.GetDuration("sync.poll_interval"),
			LoadTimeout:       v.GetDuration("sync.load_timeout"),
			StrictSources:     v.GetBool("sync.strict_sources"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_format", "{{.Name}} {{.Position}}/{{.Length}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("marquee_enabled", false)
	v.SetDefault("marquee_speed", 2)
	v.SetDefault("marquee_separator", " • ")
	v.SetDefault("data_dir", defaultDataDir())

	v.SetDefault("server.url", "http://localhost:8080/")
	v.SetDefault("server.timeout", 10*time.Second)

	v.SetDefault("sync.heartbeat_interval", 5*time.Second)
	v.SetDefault("sync.tick_interval", time.Second)
	v.SetDefault("sync.poll_interval", 100*time.Millisecond)
	v.SetDefault("sync.load_timeout", 31*time.Second)
	v.SetDefault("sync.strict_sources", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "mpvctl")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "mpvctl")
}

// StateFile returns the session state path inside DataDir.
func (c *Config) StateFile() string {
	return filepath.Join(c.DataDir, "state.json")
}

// HistoryDB returns the load history database path inside DataDir.
func (c *Config) HistoryDB() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Save writes configuration to file
func (c *Config) Save() error {
	return c.saveTo(getConfigDir())
}

func (c *Config) saveTo(configDir string) error {
	v := viper.New()

	configFile := filepath.Join(configDir, "config.yaml")

	v.Set("output_format", c.OutputFormat)
	v.Set("output_width", c.OutputWidth)
	v.Set("marquee_enabled", c.MarqueeEnabled)
	v.Set("marquee_speed", c.MarqueeSpeed)
	v.Set("marquee_separator", c.MarqueeSeparator)
	v.Set("data_dir", c.DataDir)
	v.Set("server.url", c.Server.URL)
	v.Set("server.timeout", c.Server.Timeout.String())
	v.Set("sync.heartbeat_interval", c.Sync.HeartbeatInterval.String())
	v.Set("sync.tick_interval", c.Sync.TickInterval.String())
	v.Set("sync.poll_interval", c.Sync.PollInterval.String())
	v.Set("sync.load_timeout", c.Sync.LoadTimeout.String())
	v.Set("sync.strict_sources", c.Sync.StrictSources)
	v.Set("log.level", c.Log.Level)
	v.Set("log.file", c.Log.File)

	// Write to file
	return v.WriteConfigAs(configFile)
}
