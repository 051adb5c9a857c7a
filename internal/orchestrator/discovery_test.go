package orchestrator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trackrip/internal/job"
)

func writeArtifact(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if age != 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDiscoverPrefersCombinedName(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{
		ID:            "job-1",
		TargetFormat:  job.FormatMP3,
		DisplayTitle:  "Title",
		DisplayArtist: "Artist",
	}
	writeArtifact(t, dir, "Artist - Title.mp3", 0)
	writeArtifact(t, dir, "Title.mp3", 0)
	writeArtifact(t, dir, "job-1-temp.mp3", 0)

	artifact, ok := discoverArtifact(dir, record, time.Now())
	if !ok {
		t.Fatal("expected artifact")
	}
	if artifact.fileName != "Artist - Title.mp3" {
		t.Fatalf("expected combined name, got %q", artifact.fileName)
	}
}

func TestDiscoverFallsBackToTitle(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{
		ID:            "job-2",
		TargetFormat:  job.FormatMP3,
		DisplayTitle:  "My Song",
		DisplayArtist: "Nobody",
	}
	writeArtifact(t, dir, "My Song (official).mp3", 0)
	writeArtifact(t, dir, "unrelated.mp3", 0)

	artifact, ok := discoverArtifact(dir, record, time.Now())
	if !ok {
		t.Fatal("expected artifact")
	}
	if artifact.fileName != "My Song (official).mp3" {
		t.Fatalf("unexpected pick %q", artifact.fileName)
	}
}

func TestDiscoverMatchesCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{
		ID:           "job-3",
		TargetFormat: job.FormatMP3,
		DisplayTitle: "LOUD NOISES",
	}
	writeArtifact(t, dir, "loud noises.mp3", 0)

	artifact, ok := discoverArtifact(dir, record, time.Now())
	if !ok {
		t.Fatal("expected artifact")
	}
	if artifact.fileName != "loud noises.mp3" {
		t.Fatalf("unexpected pick %q", artifact.fileName)
	}
}

func TestDiscoverUsesJobIDPrefix(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{ID: "abc123", TargetFormat: job.FormatMP3}
	writeArtifact(t, dir, "abc123.mp3", 0)
	writeArtifact(t, dir, "other.mp3", 2*time.Hour)

	artifact, ok := discoverArtifact(dir, record, time.Now())
	if !ok {
		t.Fatal("expected artifact")
	}
	if artifact.fileName != "abc123.mp3" {
		t.Fatalf("unexpected pick %q", artifact.fileName)
	}
}

func TestDiscoverNewestWithinWindow(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{ID: "zzz", TargetFormat: job.FormatMP3}
	writeArtifact(t, dir, "fresh.mp3", 0)
	writeArtifact(t, dir, "stale.mp3", 2*time.Hour)

	artifact, ok := discoverArtifact(dir, record, time.Now())
	if !ok {
		t.Fatal("expected artifact")
	}
	if artifact.fileName != "fresh.mp3" {
		t.Fatalf("unexpected pick %q", artifact.fileName)
	}
}

func TestDiscoverRejectsOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{ID: "zzz", TargetFormat: job.FormatMP3}
	writeArtifact(t, dir, "stale.mp3", 2*time.Hour)

	if _, ok := discoverArtifact(dir, record, time.Now()); ok {
		t.Fatal("stale artifact should not be claimed")
	}
}

func TestDiscoverIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	record := &job.Record{ID: "j", TargetFormat: job.FormatMP3, DisplayTitle: "Clip"}
	writeArtifact(t, dir, "Clip.mp4", 0)

	if _, ok := discoverArtifact(dir, record, time.Now()); ok {
		t.Fatal("non-target extension should not match")
	}
}

func TestDiscoverEmptyDir(t *testing.T) {
	record := &job.Record{ID: "j", TargetFormat: job.FormatMP3}
	if _, ok := discoverArtifact(t.TempDir(), record, time.Now()); ok {
		t.Fatal("empty directory should yield no artifact")
	}
}
