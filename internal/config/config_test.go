package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.URL != "http://localhost:8080/" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Sync.HeartbeatInterval != 5*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 5s", cfg.Sync.HeartbeatInterval)
	}
	if cfg.Sync.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.Sync.TickInterval)
	}
	if cfg.Sync.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", cfg.Sync.PollInterval)
	}
	if cfg.Sync.LoadTimeout != 31*time.Second {
		t.Errorf("LoadTimeout = %v, want 31s", cfg.Sync.LoadTimeout)
	}
	if !cfg.Sync.StrictSources {
		t.Error("StrictSources should default to true")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.MarqueeSpeed != 2 {
		t.Errorf("MarqueeSpeed = %d, want 2", cfg.MarqueeSpeed)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	content := `server:
  url: http://media.local:9000/
  timeout: 3s
sync:
  heartbeat_interval: 2s
  strict_sources: false
output_width: 40
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(dir)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.URL != "http://media.local:9000/" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 3*time.Second {
		t.Errorf("Server.Timeout = %v", cfg.Server.Timeout)
	}
	if cfg.Sync.HeartbeatInterval != 2*time.Second {
		t.Errorf("HeartbeatInterval = %v", cfg.Sync.HeartbeatInterval)
	}
	if cfg.Sync.StrictSources {
		t.Error("StrictSources should be false")
	}
	if cfg.OutputWidth != 40 {
		t.Errorf("OutputWidth = %d", cfg.OutputWidth)
	}
	// Untouched keys keep their defaults.
	if cfg.Sync.LoadTimeout != 31*time.Second {
		t.Errorf("LoadTimeout = %v", cfg.Sync.LoadTimeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MPVCTL_SERVER_URL", "http://env.local/")
	t.Setenv("MPVCTL_SYNC_POLL_INTERVAL", "250ms")
	t.Setenv("MPVCTL_LOG_LEVEL", "debug")

	cfg, err := load(t.TempDir())
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.URL != "http://env.local/" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Sync.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v", cfg.Sync.PollInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := load(dir); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()

	cfg, err := load(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.URL = "http://saved.local/"
	cfg.Sync.LoadTimeout = 10 * time.Second
	cfg.MarqueeEnabled = true

	if err := cfg.saveTo(dir); err != nil {
		t.Fatalf("saveTo() error = %v", err)
	}

	got, err := load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.URL != "http://saved.local/" {
		t.Errorf("Server.URL = %q", got.Server.URL)
	}
	if got.Sync.LoadTimeout != 10*time.Second {
		t.Errorf("LoadTimeout = %v", got.Sync.LoadTimeout)
	}
	if !got.MarqueeEnabled {
		t.Error("MarqueeEnabled not persisted")
	}
}

func TestDataPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.StateFile(); got != filepath.Join("/data", "state.json") {
		t.Errorf("StateFile() = %q", got)
	}
	if got := cfg.HistoryDB(); got != filepath.Join("/data", "history.db") {
		t.Errorf("HistoryDB() = %q", got)
	}
}
