package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"trackrip/internal/job"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func newRecord(id string) *job.Record {
	return &job.Record{
		ID:           id,
		SourceRef:    "https://example.com/v/" + id,
		TargetFormat: job.FormatMP3,
		Status:       job.StatusQueued,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestSubmissionAndOutcome(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	record := newRecord("job-1")
	if err := ledger.RecordSubmission(ctx, record); err != nil {
		t.Fatalf("RecordSubmission: %v", err)
	}

	record.MarkProcessing()
	record.MarkCompleted("/out/a.mp3", "a.mp3", time.Now().UTC())
	if err := ledger.RecordOutcome(ctx, record); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	entries, err := ledger.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.JobID != "job-1" {
		t.Fatalf("unexpected job id %q", entry.JobID)
	}
	if entry.Status != string(job.StatusCompleted) {
		t.Fatalf("unexpected status %q", entry.Status)
	}
	if entry.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestOutcomeIgnoresNonTerminal(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	record := newRecord("job-2")
	if err := ledger.RecordSubmission(ctx, record); err != nil {
		t.Fatal(err)
	}
	record.MarkProcessing()
	if err := ledger.RecordOutcome(ctx, record); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	entries, err := ledger.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Status != string(job.StatusQueued) {
		t.Fatalf("non-terminal outcome should not update row, got %q", entries[0].Status)
	}
}

func TestListOrderAndLimit(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := ledger.RecordSubmission(ctx, newRecord(id)); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ledger.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].JobID != "c" || entries[1].JobID != "b" {
		t.Fatalf("expected newest first, got %q then %q", entries[0].JobID, entries[1].JobID)
	}
}

func TestStats(t *testing.T) {
	ledger := openTestLedger(t)
	ctx := context.Background()

	completed := newRecord("done")
	if err := ledger.RecordSubmission(ctx, completed); err != nil {
		t.Fatal(err)
	}
	completed.MarkProcessing()
	completed.MarkCompleted("/out/x.mp3", "x.mp3", time.Now().UTC())
	if err := ledger.RecordOutcome(ctx, completed); err != nil {
		t.Fatal(err)
	}

	failed := newRecord("broken")
	if err := ledger.RecordSubmission(ctx, failed); err != nil {
		t.Fatal(err)
	}
	failed.MarkProcessing()
	failed.MarkFailed("tool exited with status 1", time.Now().UTC())
	if err := ledger.RecordOutcome(ctx, failed); err != nil {
		t.Fatal(err)
	}

	if err := ledger.RecordSubmission(ctx, newRecord("pending")); err != nil {
		t.Fatal(err)
	}

	stats, err := ledger.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
