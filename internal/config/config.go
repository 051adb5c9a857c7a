// Package config loads, validates, and normalizes trackrip configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// DefaultConfigPath is the location consulted when no explicit path is given.
const DefaultConfigPath = "~/.config/trackrip/config.toml"

// Config holds all runtime settings for the daemon and CLI.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Converter Converter `toml:"converter"`
	Progress  Progress  `toml:"progress"`
	Retention Retention `toml:"retention"`
	API       API       `toml:"api"`
	Logging   Logging   `toml:"logging"`
}

// Paths collects the directories trackrip reads and writes.
type Paths struct {
	StateDir  string `toml:"state_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Converter configures the external extraction tool.
type Converter struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Progress tunes the stall monitor.
type Progress struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	StallTimeoutSeconds int `toml:"stall_timeout_seconds"`
	StallCeiling        int `toml:"stall_ceiling"`
	StallIncrement      int `toml:"stall_increment"`
}

// Retention controls automatic cleanup of completed jobs.
type Retention struct {
	Seconds       int    `toml:"seconds"`
	SweepSchedule string `toml:"sweep_schedule"`
}

// API configures the HTTP intake listener.
type API struct {
	Bind string `toml:"bind"`
}

// Logging configures daemon log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  "~/.local/share/trackrip/state",
			OutputDir: "~/.local/share/trackrip/output",
			LogDir:    "~/.local/share/trackrip/logs",
		},
		Converter: Converter{
			Binary:         "yt-dlp",
			TimeoutSeconds: 0,
		},
		Progress: Progress{
			PollIntervalSeconds: 10,
			StallTimeoutSeconds: 30,
			StallCeiling:        80,
			StallIncrement:      10,
		},
		Retention: Retention{
			Seconds:       0,
			SweepSchedule: "@every 30m",
		},
		API: API{
			Bind: "127.0.0.1:7710",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

// Load reads configuration from path, or from DefaultConfigPath when path is
// empty. A missing file yields the defaults with exists set to false.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotenv(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		applyEnvOverrides(&cfg)
		if err := cfg.normalize(); err != nil {
			return nil, resolved, false, err
		}
		return &cfg, resolved, false, nil
	case err != nil:
		return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.normalize(); err != nil {
		return nil, resolved, true, err
	}
	return &cfg, resolved, true, nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates every directory the configuration references.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// JobDir returns the directory holding per-job state files.
func (c *Config) JobDir() string {
	return filepath.Join(c.Paths.StateDir, "jobs")
}

// HistoryPath returns the location of the history ledger database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "trackripd.lock")
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigPath
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is empty")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}

// loadDotenv overlays a .env file next to the config file, then one in the
// working directory. Existing environment variables win.
func loadDotenv(configPath string) {
	candidates := []string{
		filepath.Join(filepath.Dir(configPath), ".env"),
		".env",
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRACKRIP_STATE_DIR"); v != "" {
		cfg.Paths.StateDir = v
	}
	if v := os.Getenv("TRACKRIP_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv("TRACKRIP_LOG_DIR"); v != "" {
		cfg.Paths.LogDir = v
	}
	if v := os.Getenv("TRACKRIP_CONVERTER_BINARY"); v != "" {
		cfg.Converter.Binary = v
	}
	if v := os.Getenv("TRACKRIP_API_BIND"); v != "" {
		cfg.API.Bind = v
	}
	if v := os.Getenv("TRACKRIP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
