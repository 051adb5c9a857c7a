package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackrip/internal/config"
	"trackrip/internal/job"
	"trackrip/internal/jobfile"
)

func writeTestConfig(t *testing.T, bind string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"
output_dir = "` + filepath.Join(dir, "out") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[api]
bind = "` + bind + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata([]string{"album=Greatest Hits", "year=1999"})
	if err != nil {
		t.Fatal(err)
	}
	if meta["album"] != "Greatest Hits" || meta["year"] != "1999" {
		t.Fatalf("unexpected metadata %v", meta)
	}

	if _, err := parseMetadata([]string{"no-equals"}); err == nil {
		t.Fatal("expected error for malformed pair")
	}
	if _, err := parseMetadata([]string{"=value"}); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestRenderTablePlainWhenNotTerminal(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status"},
		[][]string{{"a", "queued"}},
		nil,
	)
	if !strings.Contains(out, "a\tqueued") {
		t.Fatalf("expected tab-separated output, got %q", out)
	}
}

func TestSubmitCommandTalksToDaemon(t *testing.T) {
	var received submitPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"job":{"id":"job-1","status":"queued"}}`))
	}))
	defer server.Close()

	bind := strings.TrimPrefix(server.URL, "http://")
	configPath := writeTestConfig(t, bind)

	out, err := runCommand(t,
		"--config", configPath,
		"submit", "https://example.com/v/1",
		"--title", "Song",
		"--artist", "Band",
		"--meta", "album=Test",
	)
	if err != nil {
		t.Fatalf("submit: %v (%s)", err, out)
	}
	if !strings.Contains(out, "job-1") {
		t.Fatalf("missing job id in output: %q", out)
	}
	if received.SourceRef != "https://example.com/v/1" {
		t.Fatalf("daemon got wrong source %q", received.SourceRef)
	}
	if received.DisplayTitle != "Song" || received.DisplayArtist != "Band" {
		t.Fatalf("daemon got wrong display fields %+v", received)
	}
	if received.Metadata["album"] != "Test" {
		t.Fatalf("daemon got wrong metadata %v", received.Metadata)
	}
}

func TestStatusCommandRendersJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/jobs/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job":{"id":"job-2","sourceRef":"https://example.com/v/2","status":"processing","progress":45}}`))
	}))
	defer server.Close()

	configPath := writeTestConfig(t, strings.TrimPrefix(server.URL, "http://"))

	out, err := runCommand(t, "--config", configPath, "status", "job-2")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "processing") || !strings.Contains(out, "45%") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigShowPrintsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	out, err := runCommand(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "yt-dlp") {
		t.Fatalf("expected default binary in output, got %q", out)
	}
	if !strings.Contains(out, "not found") {
		t.Fatalf("expected defaults marker, got %q", out)
	}
}

func writeJobFile(t *testing.T, configPath, id string) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	adapter, err := jobfile.NewAdapter(cfg.JobDir())
	if err != nil {
		t.Fatal(err)
	}
	record := &job.Record{
		ID:           id,
		SourceRef:    "https://example.com/v/" + id,
		TargetFormat: job.FormatMP3,
		DisplayTitle: "Offline Song",
		Status:       job.StatusProcessing,
		Progress:     45,
		CreatedAt:    time.Now().UTC(),
	}
	if err := adapter.Save(record); err != nil {
		t.Fatal(err)
	}
}

func TestStatusFallsBackToStateDirWhenDaemonDown(t *testing.T) {
	// Nothing listens on this address; the connection is refused.
	configPath := writeTestConfig(t, "127.0.0.1:1")
	writeJobFile(t, configPath, "offline-1")

	out, err := runCommand(t, "--config", configPath, "status", "offline-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "processing") || !strings.Contains(out, "45%") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := runCommand(t, "--config", configPath, "status", "missing"); err == nil {
		t.Fatal("expected not-found error for unknown id")
	}
}

func TestListFallsBackToStateDirWhenDaemonDown(t *testing.T) {
	configPath := writeTestConfig(t, "127.0.0.1:1")
	writeJobFile(t, configPath, "offline-2")

	out, err := runCommand(t, "--config", configPath, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "offline-2") || !strings.Contains(out, "Offline Song") {
		t.Fatalf("unexpected output %q", out)
	}
}
