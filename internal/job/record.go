package job

import (
	"strings"
	"time"

	"trackrip/internal/textutil"
)

// Status represents the lifecycle of an extraction job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// FormatMP3 is the only target format the orchestrator currently accepts.
const FormatMP3 = "mp3"

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Record captures the identity, inputs, and lifecycle state of one
// extraction job. It is persisted verbatim as the on-disk job file.
type Record struct {
	ID             string            `json:"id"`
	SourceRef      string            `json:"source_ref"`
	TargetFormat   string            `json:"target_format"`
	DisplayTitle   string            `json:"display_title,omitempty"`
	DisplayArtist  string            `json:"display_artist,omitempty"`
	CustomMetadata map[string]string `json:"custom_metadata,omitempty"`
	Status         Status            `json:"status"`
	Progress       int               `json:"progress"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ResultPath     string            `json:"result_path,omitempty"`
	ResultFileName string            `json:"result_file_name,omitempty"`
	ErrorDetail    string            `json:"error_detail,omitempty"`
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the record has reached a final state.
func (r *Record) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// AdvanceProgress raises Progress to value when doing so moves it forward.
// Values at or below the current progress, or outside 0-100, are ignored so
// observed progress never regresses. Terminal records are never touched.
func (r *Record) AdvanceProgress(value int) bool {
	if r.IsTerminal() {
		return false
	}
	if value <= r.Progress || value < 0 || value > 100 {
		return false
	}
	r.Progress = value
	return true
}

// MarkProcessing transitions a queued record to processing.
func (r *Record) MarkProcessing() bool {
	if r.Status != StatusQueued {
		return false
	}
	r.Status = StatusProcessing
	return true
}

// MarkCompleted records a successful terminal transition. Progress is pinned
// to 100 and CompletedAt is set exactly once. No-op on terminal records.
func (r *Record) MarkCompleted(resultPath, resultFileName string, now time.Time) bool {
	if r.IsTerminal() {
		return false
	}
	r.Status = StatusCompleted
	r.Progress = 100
	r.ResultPath = resultPath
	r.ResultFileName = resultFileName
	completed := now.UTC()
	r.CompletedAt = &completed
	return true
}

// MarkFailed records a failed terminal transition. Progress keeps its last
// value. No-op on terminal records.
func (r *Record) MarkFailed(detail string, now time.Time) bool {
	if r.IsTerminal() {
		return false
	}
	r.Status = StatusFailed
	r.ErrorDetail = detail
	completed := now.UTC()
	r.CompletedAt = &completed
	return true
}

// Clone returns a deep copy so callers can hand records across goroutines
// without sharing the metadata map.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.CustomMetadata != nil {
		cp.CustomMetadata = make(map[string]string, len(r.CustomMetadata))
		for k, v := range r.CustomMetadata {
			cp.CustomMetadata[k] = v
		}
	}
	if r.CompletedAt != nil {
		completed := *r.CompletedAt
		cp.CompletedAt = &completed
	}
	return &cp
}

// Equal reports whether two records carry the same observable state. The
// store uses it to skip disk writes for mutations that changed nothing.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.ID != other.ID ||
		r.SourceRef != other.SourceRef ||
		r.TargetFormat != other.TargetFormat ||
		r.DisplayTitle != other.DisplayTitle ||
		r.DisplayArtist != other.DisplayArtist ||
		r.Status != other.Status ||
		r.Progress != other.Progress ||
		r.ResultPath != other.ResultPath ||
		r.ResultFileName != other.ResultFileName ||
		r.ErrorDetail != other.ErrorDetail ||
		!r.CreatedAt.Equal(other.CreatedAt) {
		return false
	}
	if (r.CompletedAt == nil) != (other.CompletedAt == nil) {
		return false
	}
	if r.CompletedAt != nil && !r.CompletedAt.Equal(*other.CompletedAt) {
		return false
	}
	if len(r.CustomMetadata) != len(other.CustomMetadata) {
		return false
	}
	for k, v := range r.CustomMetadata {
		if other.CustomMetadata[k] != v {
			return false
		}
	}
	return true
}

// SanitizedTitle returns the display title cleaned for filename use.
func (r *Record) SanitizedTitle() string {
	return textutil.SanitizeLabel(r.DisplayTitle)
}

// SanitizedArtist returns the display artist cleaned for filename use.
func (r *Record) SanitizedArtist() string {
	return textutil.SanitizeLabel(r.DisplayArtist)
}

// OutputBaseName derives the filename stem handed to the conversion tool.
// It prefers the "Artist - Title" composite, falls back to whichever label
// is present, and finally to the job id so the output stays discoverable.
func (r *Record) OutputBaseName() string {
	title := r.SanitizedTitle()
	artist := r.SanitizedArtist()
	switch {
	case artist != "" && title != "":
		return artist + " - " + title
	case title != "":
		return title
	case artist != "":
		return artist
	default:
		return r.ID
	}
}
