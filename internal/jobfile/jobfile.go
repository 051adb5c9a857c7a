// Package jobfile persists job records as one JSON file per job id.
//
// Files are replaced atomically so status readers never observe a partial
// write. A missing or unreadable file is reported as not-found rather than
// an error: the store treats it as an ordinary cache miss.
package jobfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trackrip/internal/fileutil"
	"trackrip/internal/job"
)

// Adapter reads and writes job records under a single state directory.
type Adapter struct {
	dir string
}

// NewAdapter constructs an adapter rooted at dir. The directory is created
// lazily on the first save.
func NewAdapter(dir string) (*Adapter, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("state directory required")
	}
	return &Adapter{dir: dir}, nil
}

// Dir returns the state directory backing the adapter.
func (a *Adapter) Dir() string {
	return a.dir
}

// Path returns the on-disk location for a job id.
func (a *Adapter) Path(id string) string {
	return filepath.Join(a.dir, id+".json")
}

// Save serializes the record to its per-job file using an atomic replace.
func (a *Adapter) Save(record *job.Record) error {
	if record == nil || strings.TrimSpace(record.ID) == "" {
		return errors.New("record with id required")
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", record.ID, err)
	}
	if err := fileutil.WriteFileAtomic(a.Path(record.ID), data, 0o644); err != nil {
		return fmt.Errorf("persist job %s: %w", record.ID, err)
	}
	return nil
}

// Load reads the record for id. Missing and corrupt files both return
// (nil, nil) so callers see a normal cache miss instead of a fatal error.
func (a *Adapter) Load(id string) (*job.Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(a.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	var record job.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil
	}
	if record.ID == "" {
		return nil, nil
	}
	return &record, nil
}

// Remove deletes the record file, tolerating an already-missing file.
func (a *Adapter) Remove(id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return fileutil.RemoveIfExists(a.Path(id))
}

// List loads every readable record in the state directory. Unparseable
// files are skipped, matching Load semantics.
func (a *Adapter) List() ([]*job.Record, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state directory: %w", err)
	}
	records := make([]*job.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := a.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, nil
}
