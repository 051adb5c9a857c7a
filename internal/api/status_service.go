package api

import (
	"context"

	"trackrip/internal/job"
)

// JobReader abstracts job persistence interactions needed for API queries.
type JobReader interface {
	Get(ctx context.Context, id string) (*job.Record, error)
	List(ctx context.Context) ([]*job.Record, error)
	Stats(ctx context.Context) (map[job.Status]int, error)
}

// StatusService exposes read-only job operations returning API DTOs.
type StatusService struct {
	store JobReader
}

// NewStatusService constructs a StatusService around the provided reader.
func NewStatusService(store JobReader) *StatusService {
	if store == nil {
		return nil
	}
	return &StatusService{store: store}
}

// Describe fetches a single job. Unknown ids yield (nil, nil).
func (s *StatusService) Describe(ctx context.Context, id string) (*JobView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	record, err := s.store.Get(ctx, id)
	if err != nil || record == nil {
		return nil, err
	}
	view := FromRecord(record)
	return &view, nil
}

// List returns all known jobs.
func (s *StatusService) List(ctx context.Context) ([]JobView, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FromRecords(records), nil
}

// Stats returns job counts keyed by status string, with every known status
// present even when zero.
func (s *StatusService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]int, len(job.AllStatuses()))
	for _, status := range job.AllStatuses() {
		merged[string(status)] = 0
	}
	for status, count := range stats {
		merged[string(status)] = count
	}
	return merged, nil
}
