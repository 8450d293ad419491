package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"hitstudio/internal/config"
	"hitstudio/internal/history"
	"hitstudio/internal/logging"
	"hitstudio/internal/studio"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *history.Store
	storeErr  error

	// loggerOverride lets serve swap in the foreground logger.
	loggerOverride *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// logger writes to the log file only, so command output stays clean.
func (c *commandContext) logger() *slog.Logger {
	if c.loggerOverride != nil {
		return c.loggerOverride
	}
	logger, err := logging.NewFileLogger(c.configValue())
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// historyStore opens the local history database once per invocation.
func (c *commandContext) historyStore() (*history.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		store, err := history.Open(cfg)
		if err != nil {
			c.storeErr = fmt.Errorf("open history: %w", err)
			return
		}
		c.store = store
	})
	return c.store, c.storeErr
}

// session builds a studio session. A history database that cannot be opened
// is reported as a warning; generation still works without it.
func (c *commandContext) session(cmd *cobra.Command, opts ...studio.Option) (*studio.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	all := []studio.Option{studio.WithLogger(logger)}
	if store, err := c.historyStore(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; results will not be recorded\n", err)
	} else {
		all = append(all, studio.WithStore(store))
	}
	return studio.New(cfg, append(all, opts...)...), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
