package testsupport

import (
	"path/filepath"
	"testing"

	"hitstudio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Dashboard.Bind = "127.0.0.1:0"
	cfgVal.Generation.PollIntervalMillis = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackendURL points the test config at a fake backend.
func WithBackendURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithDashboardToken requires bearer auth on the dashboard.
func WithDashboardToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dashboard.Token = token
	}
}

// WithAutoAnalyze toggles analysis of completed tracks.
func WithAutoAnalyze(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generation.AutoAnalyze = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
