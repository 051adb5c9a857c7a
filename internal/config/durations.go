package config

import "time"

// ConverterTimeout returns the external tool deadline, zero meaning none.
func (c *Config) ConverterTimeout() time.Duration {
	return time.Duration(c.Converter.TimeoutSeconds) * time.Second
}

// PollInterval returns the stall monitor tick interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Progress.PollIntervalSeconds) * time.Second
}

// StallTimeout returns how long a job may go without output before it is
// considered stalled.
func (c *Config) StallTimeout() time.Duration {
	return time.Duration(c.Progress.StallTimeoutSeconds) * time.Second
}

// RetentionDuration returns how long completed jobs are kept, zero meaning
// retention is disabled.
func (c *Config) RetentionDuration() time.Duration {
	return time.Duration(c.Retention.Seconds) * time.Second
}
