package job_test

import (
	"testing"
	"time"

	"trackrip/internal/job"
)

func newRecord() *job.Record {
	return &job.Record{
		ID:           "job-1",
		SourceRef:    "abc123",
		TargetFormat: job.FormatMP3,
		Status:       job.StatusQueued,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestAdvanceProgressNeverRegresses(t *testing.T) {
	rec := newRecord()
	rec.MarkProcessing()

	if !rec.AdvanceProgress(40) {
		t.Fatal("expected progress to advance to 40")
	}
	if rec.AdvanceProgress(40) {
		t.Fatal("equal value must not count as an advance")
	}
	if rec.AdvanceProgress(25) {
		t.Fatal("progress must not regress")
	}
	if rec.AdvanceProgress(120) {
		t.Fatal("out-of-range value must be rejected")
	}
	if rec.Progress != 40 {
		t.Fatalf("expected progress 40, got %d", rec.Progress)
	}
}

func TestTerminalImmutability(t *testing.T) {
	rec := newRecord()
	rec.MarkProcessing()
	rec.AdvanceProgress(55)

	now := time.Now()
	if !rec.MarkFailed("network error", now) {
		t.Fatal("expected terminal transition to apply")
	}
	failedAt := *rec.CompletedAt

	if rec.MarkCompleted("/out/a.mp3", "a.mp3", now.Add(time.Second)) {
		t.Fatal("completed must not overwrite failed")
	}
	if rec.MarkFailed("other", now.Add(time.Second)) {
		t.Fatal("second failure must be rejected")
	}
	if rec.AdvanceProgress(99) {
		t.Fatal("terminal record must not accept progress")
	}
	if rec.Status != job.StatusFailed || rec.ErrorDetail != "network error" {
		t.Fatalf("terminal state mutated: %#v", rec)
	}
	if rec.Progress != 55 {
		t.Fatalf("failed record should keep last progress, got %d", rec.Progress)
	}
	if !rec.CompletedAt.Equal(failedAt) {
		t.Fatal("CompletedAt must be set exactly once")
	}
}

func TestMarkCompletedPinsProgress(t *testing.T) {
	rec := newRecord()
	rec.MarkProcessing()
	rec.AdvanceProgress(62)

	if !rec.MarkCompleted("/out/Band - Song.mp3", "Band - Song.mp3", time.Now()) {
		t.Fatal("expected completion to apply")
	}
	if rec.Progress != 100 {
		t.Fatalf("completed job must report 100, got %d", rec.Progress)
	}
	if rec.ResultFileName != "Band - Song.mp3" {
		t.Fatalf("unexpected result name %q", rec.ResultFileName)
	}
}

func TestMarkProcessingRequiresQueued(t *testing.T) {
	rec := newRecord()
	if !rec.MarkProcessing() {
		t.Fatal("queued record should transition")
	}
	if rec.MarkProcessing() {
		t.Fatal("processing record should not transition again")
	}
}

func TestOutputBaseName(t *testing.T) {
	cases := []struct {
		name     string
		artist   string
		title    string
		expected string
	}{
		{"composite", "Band", "Song", "Band - Song"},
		{"title only", "", "Song", "Song"},
		{"artist only", "Band", "", "Band"},
		{"sanitized", "AC/DC", "Back In  Black", "AC-DC - Back In Black"},
		{"neither falls back to id", "", "", "job-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newRecord()
			rec.DisplayArtist = tc.artist
			rec.DisplayTitle = tc.title
			if got := rec.OutputBaseName(); got != tc.expected {
				t.Fatalf("OutputBaseName() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rec := newRecord()
	rec.CustomMetadata = map[string]string{"genre": "rock"}

	cp := rec.Clone()
	cp.CustomMetadata["genre"] = "jazz"
	cp.Progress = 80

	if rec.CustomMetadata["genre"] != "rock" {
		t.Fatal("clone shares metadata map")
	}
	if rec.Progress != 0 {
		t.Fatal("clone shares scalar state")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := job.ParseStatus(" Completed "); !ok || status != job.StatusCompleted {
		t.Fatalf("expected completed, got %q ok=%v", status, ok)
	}
	if _, ok := job.ParseStatus("ripping"); ok {
		t.Fatal("unknown status should not parse")
	}
}
