package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, format string, buf *bytes.Buffer) *slog.Logger {
	t.Helper()
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	switch format {
	case "console":
		return slog.New(newConsoleHandler(buf, levelVar))
	case "json":
		return slog.New(newJSONHandler(buf, levelVar))
	default:
		t.Fatalf("unknown format %q", format)
		return nil
	}
}

func TestConsoleHandlerLayout(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)
	logger = WithComponent(logger, "orchestrator")

	logger.Info("job completed", Args(String(FieldJobID, "abc"), Int(FieldProgress, 100))...)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO orchestrator: job completed") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "job_id=abc") || !strings.Contains(line, "progress=100") {
		t.Fatalf("missing attributes: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)

	logger.Warn("note", Args(String("detail", "has spaces"), Error(errors.New("boom failed")))...)

	line := buf.String()
	if !strings.Contains(line, `detail="has spaces"`) {
		t.Fatalf("value not quoted: %q", line)
	}
	if !strings.Contains(line, `error="boom failed"`) {
		t.Fatalf("error not rendered: %q", line)
	}
}

func TestConsoleHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "console", &buf)

	logger.Info("msg", slog.Group("job", slog.String("id", "xyz")))

	if !strings.Contains(buf.String(), "job.id=xyz") {
		t.Fatalf("group not flattened: %q", buf.String())
	}
}

func TestJSONHandlerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(t, "json", &buf)

	logger.Info("hello", Args(String(FieldJobID, "abc"))...)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if payload["msg"] != "hello" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("missing ts key")
	}
	if payload["job_id"] != "abc" {
		t.Fatalf("unexpected job_id: %v", payload["job_id"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info not filtered: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn missing: %q", out)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("ignored", Args(Error(errors.New("x")))...)
}
