package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"hitstudio/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	t.Setenv("HITSTUDIO_API_KEY", "env-key")
	t.Setenv("HITSTUDIO_BACKEND_URL", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "hitstudio", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".local", "share", "hitstudio"); cfg.Paths.StateDir != want {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Backend.APIKey != "env-key" {
		t.Fatalf("expected api key from env, got %q", cfg.Backend.APIKey)
	}
	if cfg.Backend.BaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected base url %q", cfg.Backend.BaseURL)
	}
	if cfg.Generation.DefaultModel != "musicgen-medium" || cfg.Generation.DefaultDuration != 30 {
		t.Fatalf("unexpected generation defaults: %+v", cfg.Generation)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("poll interval = %s, want 2s", cfg.PollInterval())
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	t.Setenv("HITSTUDIO_API_KEY", "")
	t.Setenv("HITSTUDIO_BACKEND_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := config.Default()
	cfg.Backend.BaseURL = "https://studio.example.com/"
	cfg.Backend.APIKey = "  file-key  "
	cfg.Generation.DefaultModel = "MusicGen-Large"
	cfg.Generation.PollIntervalMillis = 250
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Logging.Format = "JSON"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %s, got %s (exists=%v)", path, resolved, exists)
	}
	if loaded.Backend.BaseURL != "https://studio.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", loaded.Backend.BaseURL)
	}
	if loaded.Backend.APIKey != "file-key" {
		t.Fatalf("expected trimmed api key, got %q", loaded.Backend.APIKey)
	}
	if loaded.Generation.DefaultModel != "musicgen-large" {
		t.Fatalf("expected lower-cased model, got %q", loaded.Generation.DefaultModel)
	}
	if loaded.PollInterval() != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", loaded.PollInterval())
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", loaded.Logging.Format)
	}
}

func TestLoadReadsDotEnvBesideConfig(t *testing.T) {
	t.Setenv("HITSTUDIO_API_KEY", "")
	t.Setenv("HITSTUDIO_DASHBOARD_TOKEN", "")
	t.Setenv("HITSTUDIO_BACKEND_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\nstate_dir = \""+filepath.ToSlash(filepath.Join(dir, "state"))+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := "HITSTUDIO_API_KEY=dotenv-key\nHITSTUDIO_DASHBOARD_TOKEN=dash-secret\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.APIKey != "dotenv-key" {
		t.Fatalf("expected api key from .env, got %q", cfg.Backend.APIKey)
	}
	if cfg.Dashboard.Token != "dash-secret" {
		t.Fatalf("expected dashboard token from .env, got %q", cfg.Dashboard.Token)
	}
	if value := os.Getenv("HITSTUDIO_API_KEY"); value != "" {
		t.Fatalf(".env must not leak into the process environment, got %q", value)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"non-http base url", func(c *config.Config) { c.Backend.BaseURL = "ftp://studio" }, "backend.base_url"},
		{"missing host", func(c *config.Config) { c.Backend.BaseURL = "http://" }, "host"},
		{"temperature too hot", func(c *config.Config) { c.Generation.DefaultTemperature = 1.9 }, "default_temperature"},
		{"temperature too cold", func(c *config.Config) { c.Generation.DefaultTemperature = 0.2 }, "default_temperature"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }, "ntfy_topic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HITSTUDIO_API_KEY", "")
	t.Setenv("HITSTUDIO_BACKEND_URL", "")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Generation.MaxPollFailures != 3 {
		t.Fatalf("unexpected sample max_poll_failures %d", cfg.Generation.MaxPollFailures)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
