// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"trackrip/internal/config"
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
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRetention sets the retention window in seconds.
func WithRetention(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retention.Seconds = seconds
	}
}

// WithAPIBind overrides the HTTP listen address.
func WithAPIBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Bind = bind
	}
}

// WithConverterScript writes an executable shell script and points the
// converter binary at it. The script body receives the standard converter
// arguments; $TRACKRIP_TEST_OUTPUT holds the configured output directory.
func WithConverterScript(body string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "fake-converter")
		script := "#!/bin/sh\n" + body + "\n"
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write converter stub: %v", err)
		}
		b.cfg.Converter.Binary = target
		b.t.Setenv("TRACKRIP_TEST_OUTPUT", b.cfg.Paths.OutputDir)
	}
}
