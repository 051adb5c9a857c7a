package config

import "fmt"

// Validate checks the normalized configuration for contradictions.
func (c *Config) Validate() error {
	if c.Progress.StallCeiling < 0 || c.Progress.StallCeiling > 100 {
		return fmt.Errorf("progress.stall_ceiling must be between 0 and 100, got %d", c.Progress.StallCeiling)
	}
	if c.Progress.StallTimeoutSeconds < c.Progress.PollIntervalSeconds {
		return fmt.Errorf("progress.stall_timeout_seconds (%d) must not be below progress.poll_interval_seconds (%d)",
			c.Progress.StallTimeoutSeconds, c.Progress.PollIntervalSeconds)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
