// Package api exposes transport-friendly views of job state for the HTTP
// listener and the CLI.
package api

import (
	"time"

	"trackrip/internal/job"
)

// JobView describes a job in a transport-friendly format.
type JobView struct {
	ID             string            `json:"id"`
	SourceRef      string            `json:"sourceRef"`
	TargetFormat   string            `json:"targetFormat"`
	DisplayTitle   string            `json:"displayTitle,omitempty"`
	DisplayArtist  string            `json:"displayArtist,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Status         string            `json:"status"`
	Progress       int               `json:"progress"`
	CreatedAt      string            `json:"createdAt,omitempty"`
	CompletedAt    string            `json:"completedAt,omitempty"`
	ResultPath     string            `json:"resultPath,omitempty"`
	ResultFileName string            `json:"resultFileName,omitempty"`
	ErrorDetail    string            `json:"errorDetail,omitempty"`
}

// FromRecord converts a job record into its API view.
func FromRecord(record *job.Record) JobView {
	if record == nil {
		return JobView{}
	}
	view := JobView{
		ID:             record.ID,
		SourceRef:      record.SourceRef,
		TargetFormat:   record.TargetFormat,
		DisplayTitle:   record.DisplayTitle,
		DisplayArtist:  record.DisplayArtist,
		Status:         string(record.Status),
		Progress:       record.Progress,
		ResultPath:     record.ResultPath,
		ResultFileName: record.ResultFileName,
		ErrorDetail:    record.ErrorDetail,
	}
	if len(record.CustomMetadata) > 0 {
		view.Metadata = make(map[string]string, len(record.CustomMetadata))
		for k, v := range record.CustomMetadata {
			view.Metadata[k] = v
		}
	}
	if !record.CreatedAt.IsZero() {
		view.CreatedAt = record.CreatedAt.UTC().Format(time.RFC3339)
	}
	if record.CompletedAt != nil {
		view.CompletedAt = record.CompletedAt.UTC().Format(time.RFC3339)
	}
	return view
}

// FromRecords converts a slice of job records into API views.
func FromRecords(records []*job.Record) []JobView {
	views := make([]JobView, 0, len(records))
	for _, record := range records {
		views = append(views, FromRecord(record))
	}
	return views
}
