package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trackrip/internal/config"
	"trackrip/internal/history"
	"trackrip/internal/job"
	"trackrip/internal/jobstore"
	"trackrip/internal/logging"
	"trackrip/internal/progress"
	"trackrip/internal/services"
	"trackrip/internal/services/converter"
)

// SubmitRequest describes a new extraction job.
type SubmitRequest struct {
	SourceRef     string
	TargetFormat  string
	DisplayTitle  string
	DisplayArtist string
	Metadata      map[string]string
}

// Controller owns the job lifecycle: it accepts submissions, drives the
// external conversion tool, tracks progress, and finalizes job records.
type Controller struct {
	cfg       *config.Config
	store     *jobstore.Store
	extractor converter.Extractor
	ledger    *history.Ledger
	logger    *slog.Logger
	estimator *progress.Estimator
	monitor   *progress.Monitor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New constructs a controller. The ledger may be nil, in which case history
// recording is skipped.
func New(cfg *config.Config, store *jobstore.Store, extractor converter.Extractor, ledger *history.Ledger, logger *slog.Logger) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("orchestrator: config is required")
	}
	if store == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	if extractor == nil {
		return nil, errors.New("orchestrator: extractor is required")
	}

	c := &Controller{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		ledger:    ledger,
		logger:    logging.WithComponent(logger, "orchestrator"),
		estimator: progress.NewEstimator(),
		timers:    make(map[string]*time.Timer),
	}
	c.monitor = progress.NewMonitor(cfg.PollInterval(), cfg.StallTimeout(), c.nudgeStalled)
	return c, nil
}

// Start begins background processing. The provided context bounds the
// lifetime of every job the controller runs.
func (c *Controller) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.monitor.Start(c.ctx)
	c.scheduleRecoveredCleanups()
}

// Stop cancels running jobs and waits for their goroutines to finish.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.monitor.Stop()
	c.wg.Wait()

	c.mu.Lock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()
}

// Submit validates and accepts a new job, returning its initial record. The
// extraction itself runs asynchronously.
func (c *Controller) Submit(ctx context.Context, req SubmitRequest) (*job.Record, error) {
	sourceRef := strings.TrimSpace(req.SourceRef)
	if sourceRef == "" {
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "submit", "source reference is required", nil)
	}
	format := strings.ToLower(strings.TrimSpace(req.TargetFormat))
	if format == "" {
		format = job.FormatMP3
	}
	if format != job.FormatMP3 {
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "submit", "unsupported target format "+format, nil)
	}

	record := &job.Record{
		ID:            uuid.NewString(),
		SourceRef:     sourceRef,
		TargetFormat:  format,
		DisplayTitle:  strings.TrimSpace(req.DisplayTitle),
		DisplayArtist: strings.TrimSpace(req.DisplayArtist),
		Status:        job.StatusQueued,
		Progress:      0,
		CreatedAt:     time.Now().UTC(),
	}
	if len(req.Metadata) > 0 {
		record.CustomMetadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			record.CustomMetadata[k] = v
		}
	}

	if err := c.store.Put(ctx, record); err != nil {
		return nil, err
	}
	c.recordSubmission(record)

	c.logger.Info("job accepted",
		logging.Args(
			logging.String(logging.FieldJobID, record.ID),
			logging.String(logging.FieldSourceRef, record.SourceRef),
		)...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(record.ID)
	}()

	return record.Clone(), nil
}

// run drives one job from queued to a terminal state.
func (c *Controller) run(id string) {
	record, err := c.store.Mutate(c.ctx, id, func(r *job.Record) error {
		r.MarkProcessing()
		return nil
	})
	if err != nil || record == nil {
		c.logger.Error("job could not enter processing",
			logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		return
	}

	c.monitor.Watch(id)
	defer c.monitor.Release(id)

	req := converter.ExtractRequest{
		JobID:          record.ID,
		SourceRef:      record.SourceRef,
		OutputDir:      c.cfg.Paths.OutputDir,
		OutputBaseName: record.OutputBaseName(),
		Format:         record.TargetFormat,
		Metadata:       record.CustomMetadata,
	}

	started := time.Now()
	extractErr := c.extractor.Extract(c.ctx, req, func(line string) {
		c.monitor.Touch(id)
		if value, ok := c.estimator.Evaluate(line); ok {
			c.applyProgress(id, value)
		}
	})

	if extractErr != nil {
		if errors.Is(extractErr, context.Canceled) && c.ctx.Err() != nil {
			// Shutdown killed the subprocess. The record keeps its last
			// persisted state and surfaces as stale processing on restart.
			return
		}
		c.finalizeFailed(id, failureDetail(extractErr))
		return
	}

	artifact, ok := discoverArtifact(c.cfg.Paths.OutputDir, record, started)
	if !ok {
		c.finalizeFailed(id, "no output artifact found")
		return
	}
	c.finalizeCompleted(id, artifact)
}

func (c *Controller) applyProgress(id string, value int) {
	record, err := c.store.Mutate(c.ctx, id, func(r *job.Record) error {
		r.AdvanceProgress(value)
		return nil
	})
	if err != nil {
		c.logger.Warn("progress update failed",
			logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		return
	}
	if record != nil {
		c.logger.Debug("progress",
			logging.Args(
				logging.String(logging.FieldJobID, id),
				logging.Int(logging.FieldProgress, record.Progress),
			)...)
	}
}

// nudgeStalled raises a silent job's progress up to the configured ceiling.
// Returning false tells the monitor to stop watching the job.
func (c *Controller) nudgeStalled(id string) bool {
	ceiling := c.cfg.Progress.StallCeiling
	increment := c.cfg.Progress.StallIncrement

	keep := false
	record, err := c.store.Mutate(c.ctx, id, func(r *job.Record) error {
		if r.IsTerminal() {
			return nil
		}
		keep = true
		if r.Progress >= ceiling {
			return nil
		}
		next := r.Progress + increment
		if next > ceiling {
			next = ceiling
		}
		r.AdvanceProgress(next)
		return nil
	})
	if err != nil || record == nil {
		return false
	}
	if keep {
		c.logger.Debug("stalled job nudged",
			logging.Args(
				logging.String(logging.FieldJobID, id),
				logging.Int(logging.FieldProgress, record.Progress),
			)...)
	}
	return keep
}

func (c *Controller) finalizeCompleted(id string, artifact artifactInfo) {
	now := time.Now().UTC()
	record, err := c.store.Mutate(c.ctx, id, func(r *job.Record) error {
		r.MarkCompleted(artifact.path, artifact.fileName, now)
		return nil
	})
	if err != nil || record == nil {
		c.logger.Error("job completion could not be persisted",
			logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		return
	}
	c.recordOutcome(record)
	c.logger.Info("job completed",
		logging.Args(
			logging.String(logging.FieldJobID, id),
			logging.String("result_file", record.ResultFileName),
		)...)
	c.scheduleCleanup(record)
}

func (c *Controller) finalizeFailed(id, detail string) {
	now := time.Now().UTC()
	record, err := c.store.Mutate(c.ctx, id, func(r *job.Record) error {
		r.MarkFailed(detail, now)
		return nil
	})
	if err != nil || record == nil {
		c.logger.Error("job failure could not be persisted",
			logging.Args(logging.String(logging.FieldJobID, id), logging.Error(err))...)
		return
	}
	c.recordOutcome(record)
	c.logger.Warn("job failed",
		logging.Args(
			logging.String(logging.FieldJobID, id),
			logging.String("detail", detail),
		)...)
}

func (c *Controller) recordSubmission(record *job.Record) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordSubmission(context.Background(), record); err != nil {
		c.logger.Warn("history submission not recorded",
			logging.Args(logging.String(logging.FieldJobID, record.ID), logging.Error(err))...)
	}
}

func (c *Controller) recordOutcome(record *job.Record) {
	if c.ledger == nil {
		return
	}
	if err := c.ledger.RecordOutcome(context.Background(), record); err != nil {
		c.logger.Warn("history outcome not recorded",
			logging.Args(logging.String(logging.FieldJobID, record.ID), logging.Error(err))...)
	}
}

// failureDetail translates an extraction error into the persisted detail
// string. Spawn failures and nonzero exits carry their own messages.
func failureDetail(err error) string {
	var exitErr *converter.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Error()
	case errors.Is(err, converter.ErrSpawn):
		return err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "conversion timed out"
	case errors.Is(err, context.Canceled):
		return "conversion canceled"
	default:
		return err.Error()
	}
}
