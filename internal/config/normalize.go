package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeConverter()
	c.normalizeProgress()
	c.normalizeRetention()
	c.normalizeAPI()
	c.normalizeLogging()
	return c.Validate()
}

func (c *Config) normalizePaths() error {
	defaults := Default().Paths
	expand := func(field *string, fallback, key string) error {
		value := strings.TrimSpace(*field)
		if value == "" {
			value = fallback
		}
		expanded, err := expandPath(value)
		if err != nil {
			return fmt.Errorf("paths.%s: %w", key, err)
		}
		*field = expanded
		return nil
	}
	if err := expand(&c.Paths.StateDir, defaults.StateDir, "state_dir"); err != nil {
		return err
	}
	if err := expand(&c.Paths.OutputDir, defaults.OutputDir, "output_dir"); err != nil {
		return err
	}
	return expand(&c.Paths.LogDir, defaults.LogDir, "log_dir")
}

func (c *Config) normalizeConverter() {
	c.Converter.Binary = strings.TrimSpace(c.Converter.Binary)
	if c.Converter.Binary == "" {
		c.Converter.Binary = Default().Converter.Binary
	}
	if c.Converter.TimeoutSeconds < 0 {
		c.Converter.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeProgress() {
	defaults := Default().Progress
	if c.Progress.PollIntervalSeconds <= 0 {
		c.Progress.PollIntervalSeconds = defaults.PollIntervalSeconds
	}
	if c.Progress.StallTimeoutSeconds <= 0 {
		c.Progress.StallTimeoutSeconds = defaults.StallTimeoutSeconds
	}
	if c.Progress.StallIncrement <= 0 {
		c.Progress.StallIncrement = defaults.StallIncrement
	}
}

func (c *Config) normalizeRetention() {
	if c.Retention.Seconds < 0 {
		c.Retention.Seconds = 0
	}
	c.Retention.SweepSchedule = strings.TrimSpace(c.Retention.SweepSchedule)
	if c.Retention.SweepSchedule == "" {
		c.Retention.SweepSchedule = Default().Retention.SweepSchedule
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = Default().API.Bind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = Default().Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = Default().Logging.Level
	}
}
