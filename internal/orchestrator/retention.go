package orchestrator

import (
	"context"
	"time"

	"trackrip/internal/fileutil"
	"trackrip/internal/job"
	"trackrip/internal/logging"
)

// scheduleCleanup arms a one-shot timer that removes a completed job and its
// artifact once the retention window elapses. A zero retention keeps jobs
// forever.
func (c *Controller) scheduleCleanup(record *job.Record) {
	retention := c.cfg.RetentionDuration()
	if retention <= 0 || record == nil || record.CompletedAt == nil {
		return
	}

	delay := time.Until(record.CompletedAt.Add(retention))
	if delay < 0 {
		delay = 0
	}

	id := record.ID
	c.mu.Lock()
	if existing, ok := c.timers[id]; ok {
		existing.Stop()
	}
	c.timers[id] = time.AfterFunc(delay, func() {
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
		c.cleanup(id)
	})
	c.mu.Unlock()
}

// scheduleRecoveredCleanups re-arms retention timers for completed jobs found
// on disk at startup. Timers do not survive restarts.
func (c *Controller) scheduleRecoveredCleanups() {
	if c.cfg.RetentionDuration() <= 0 {
		return
	}
	records, err := c.store.List(c.ctx)
	if err != nil {
		c.logger.Warn("retention recovery list failed", logging.Args(logging.Error(err))...)
		return
	}
	for _, record := range records {
		if record.Status == job.StatusCompleted {
			c.scheduleCleanup(record)
		}
	}
}

// cleanup removes the job's artifact and state file.
func (c *Controller) cleanup(id string) {
	record, err := c.store.Get(context.Background(), id)
	if err != nil || record == nil {
		return
	}
	if record.Status != job.StatusCompleted {
		return
	}

	if record.ResultPath != "" {
		if err := fileutil.RemoveIfExists(record.ResultPath); err != nil {
			c.logger.Warn("artifact removal failed",
				logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		}
	}
	if err := c.store.Remove(context.Background(), id); err != nil {
		c.logger.Warn("job removal failed",
			logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		return
	}
	c.logger.Info("job expired", logging.Args(logging.String(logging.FieldJobID, id))...)
}

// SweepExpired removes completed jobs whose retention window has already
// passed. It backstops one-shot timers that were lost to a restart and is
// safe to call on any schedule.
func (c *Controller) SweepExpired(ctx context.Context) (int, error) {
	retention := c.cfg.RetentionDuration()
	if retention <= 0 {
		return 0, nil
	}
	records, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	now := time.Now()
	for _, record := range records {
		if record.Status != job.StatusCompleted || record.CompletedAt == nil {
			continue
		}
		if now.Sub(*record.CompletedAt) < retention {
			continue
		}
		c.cleanup(record.ID)
		removed++
	}
	return removed, nil
}
