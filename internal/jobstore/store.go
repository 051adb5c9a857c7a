package jobstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"trackrip/internal/job"
	"trackrip/internal/services"
)

// Disk is the durability layer behind the in-memory cache. jobfile.Adapter
// is the production implementation; tests substitute counting doubles.
type Disk interface {
	Save(record *job.Record) error
	Load(id string) (*job.Record, error)
	Remove(id string) error
	List() ([]*job.Record, error)
}

// Store keeps job records in memory with write-through persistence.
//
// Reads are served from memory; a miss falls back to the disk adapter and
// repopulates the cache, so a status query can be answered by a process
// instance other than the one that accepted the job. Writes go to memory
// first and then to disk, and fail loudly when either side fails.
type Store struct {
	mu      sync.RWMutex
	records map[string]*job.Record
	disk    Disk
}

// New constructs a store over the provided disk adapter.
func New(disk Disk) (*Store, error) {
	if disk == nil {
		return nil, errors.New("disk adapter required")
	}
	return &Store{
		records: make(map[string]*job.Record),
		disk:    disk,
	}, nil
}

// Put stores the record in memory and on disk. A disk failure rolls the
// cache back to its previous value and is surfaced to the caller; the two
// copies must never silently diverge.
func (s *Store) Put(ctx context.Context, record *job.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return services.Wrap(services.ErrValidation, "jobstore", "put", "record with id required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, hadPrevious := s.records[record.ID]
	s.records[record.ID] = record.Clone()
	if err := s.disk.Save(record); err != nil {
		if hadPrevious {
			s.records[record.ID] = previous
		} else {
			delete(s.records, record.ID)
		}
		return services.Wrap(services.ErrPersistence, "jobstore", "put", "write job file", err)
	}
	return nil
}

// Get returns a copy of the record for id, or (nil, nil) when unknown.
// A disk hit repopulates the cache so the next Get is memory-served.
func (s *Store) Get(ctx context.Context, id string) (*job.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	s.mu.RLock()
	if record, ok := s.records[id]; ok {
		defer s.mu.RUnlock()
		return record.Clone(), nil
	}
	s.mu.RUnlock()

	loaded, err := s.disk.Load(id)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobstore", "get", "read job file", err)
	}
	if loaded == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have repopulated or mutated the record while
	// the disk read was in flight; the cached copy wins.
	if record, ok := s.records[id]; ok {
		return record.Clone(), nil
	}
	s.records[id] = loaded
	return loaded.Clone(), nil
}

// Mutate applies fn to the record for id as a single read-modify-write.
// The store lock is held for the duration, so concurrent mutations of the
// same record serialize. The updated record is persisted to disk before the
// cache commits; fn errors and disk errors leave the record untouched.
// Returns (nil, nil) when the id is unknown.
func (s *Store) Mutate(ctx context.Context, id string, fn func(*job.Record) error) (*job.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" || fn == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		loaded, err := s.disk.Load(id)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, "jobstore", "mutate", "read job file", err)
		}
		if loaded == nil {
			return nil, nil
		}
		current = loaded
		s.records[id] = current
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	if updated.Equal(current) {
		return updated.Clone(), nil
	}
	if err := s.disk.Save(updated); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobstore", "mutate", "write job file", err)
	}
	s.records[id] = updated
	return updated.Clone(), nil
}

// Remove deletes the record from memory and disk, tolerating an id that is
// already gone.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	if err := s.disk.Remove(id); err != nil {
		return services.Wrap(services.ErrPersistence, "jobstore", "remove", "delete job file", err)
	}
	return nil
}

// List returns every known record, merging disk contents with the cache.
// The cached copy wins for ids present in both, since it is at least as
// fresh as the file it was written through to.
func (s *Store) List(ctx context.Context) ([]*job.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fromDisk, err := s.disk.List()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobstore", "list", "scan state directory", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*job.Record, 0, len(fromDisk)+len(s.records))
	seen := make(map[string]struct{}, len(fromDisk)+len(s.records))
	for _, record := range s.records {
		records = append(records, record.Clone())
		seen[record.ID] = struct{}{}
	}
	for _, record := range fromDisk {
		if _, ok := seen[record.ID]; ok {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Stats counts known records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[job.Status]int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[job.Status]int, len(job.AllStatuses()))
	for _, record := range records {
		stats[record.Status]++
	}
	return stats, nil
}
