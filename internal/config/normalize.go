package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeGeneration()
	c.normalizeLogging()
	c.normalizeDashboard()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	if value, ok := c.lookupEnv(envBackendURL); ok {
		c.Backend.BaseURL = value
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaultBackendURL
	}
	c.Backend.APIKey = strings.TrimSpace(c.Backend.APIKey)
	if c.Backend.APIKey == "" {
		if value, ok := c.lookupEnv(envAPIKey); ok {
			c.Backend.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultBackendTimeout
	}
	c.Backend.UserAgent = strings.TrimSpace(c.Backend.UserAgent)
	if c.Backend.UserAgent == "" {
		c.Backend.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.DefaultModel = strings.ToLower(strings.TrimSpace(c.Generation.DefaultModel))
	if c.Generation.DefaultModel == "" {
		c.Generation.DefaultModel = defaultModel
	}
	if c.Generation.DefaultDuration == 0 {
		c.Generation.DefaultDuration = defaultDuration
	}
	if c.Generation.DefaultTemperature == 0 {
		c.Generation.DefaultTemperature = defaultTemperature
	}
	if c.Generation.PollIntervalMillis <= 0 {
		c.Generation.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.Generation.MaxPollFailures <= 0 {
		c.Generation.MaxPollFailures = defaultMaxPollFailures
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeDashboard() {
	c.Dashboard.Bind = strings.TrimSpace(c.Dashboard.Bind)
	if c.Dashboard.Bind == "" {
		c.Dashboard.Bind = defaultDashboardBind
	}
	c.Dashboard.Token = strings.TrimSpace(c.Dashboard.Token)
	if c.Dashboard.Token == "" {
		if value, ok := c.lookupEnv(envDashboardToken); ok {
			c.Dashboard.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
