package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateBackend() error {
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https, got %q (set it in %s or export %s)", c.Backend.BaseURL, defaultConfigPath, envBackendURL)
	}
	if parsed.Host == "" {
		return errors.New("backend.base_url must include a host")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.DefaultDuration < 0 {
		return errors.New("generation.default_duration must be positive")
	}
	temp := c.Generation.DefaultTemperature
	if math.IsNaN(temp) || temp < minTemperature || temp > maxTemperature {
		return fmt.Errorf("generation.default_temperature must be between %.1f and %.1f", minTemperature, maxTemperature)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL such as https://ntfy.sh/my-topic, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}
