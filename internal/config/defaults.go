package config

const (
	defaultConfigPath         = "~/.config/hitstudio/config.toml"
	defaultStateDir           = "~/.local/share/hitstudio"
	defaultLogDir             = "~/.local/share/hitstudio/logs"
	defaultBackendURL         = "http://127.0.0.1:8000"
	defaultBackendTimeout     = 30
	defaultUserAgent          = "hitstudio/0.1.0"
	defaultModel              = "musicgen-medium"
	defaultDuration           = 30
	defaultTemperature        = 1.0
	defaultPollIntervalMillis = 2000
	defaultMaxPollFailures    = 3
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultDashboardBind      = "127.0.0.1:7490"
	defaultNotifyTimeout      = 10
	minTemperature            = 0.5
	maxTemperature            = 1.5
)

const (
	envBackendURL     = "HITSTUDIO_BACKEND_URL"
	envAPIKey         = "HITSTUDIO_API_KEY"
	envDashboardToken = "HITSTUDIO_DASHBOARD_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			BaseURL:        defaultBackendURL,
			RequestTimeout: defaultBackendTimeout,
			UserAgent:      defaultUserAgent,
		},
		Generation: Generation{
			DefaultModel:       defaultModel,
			DefaultDuration:    defaultDuration,
			DefaultTemperature: defaultTemperature,
			PollIntervalMillis: defaultPollIntervalMillis,
			MaxPollFailures:    defaultMaxPollFailures,
		},
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Dashboard: Dashboard{
			Bind: defaultDashboardBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Generation:     true,
			Analysis:       true,
			Errors:         true,
		},
	}
}
