package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"trackrip/internal/config"
	"trackrip/internal/job"
	"trackrip/internal/logging"
)

// janitor runs scheduled maintenance: it expires completed jobs whose
// retention timers were lost to a restart, and flags jobs stuck in
// processing with no live worker behind them.
type janitor struct {
	cfg    *config.Config
	daemon *Daemon
	logger *slog.Logger
	cron   *cron.Cron
}

func newJanitor(cfg *config.Config, d *Daemon, logger *slog.Logger) (*janitor, error) {
	j := &janitor{
		cfg:    cfg,
		daemon: d,
		logger: logging.WithComponent(logger, "janitor"),
		cron:   cron.New(),
	}
	if _, err := j.cron.AddFunc(cfg.Retention.SweepSchedule, j.sweep); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", cfg.Retention.SweepSchedule, err)
	}
	return j, nil
}

func (j *janitor) start() {
	j.cron.Start()
}

func (j *janitor) stop() {
	ctx := j.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (j *janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.daemon.Controller().SweepExpired(ctx)
	if err != nil {
		j.logger.Warn("retention sweep failed", logging.Args(logging.Error(err))...)
	} else if removed > 0 {
		j.logger.Info("retention sweep", logging.Args(logging.Int("removed", removed))...)
	}

	counts, err := j.daemon.Store().Stats(ctx)
	if err != nil {
		j.logger.Warn("store stats failed", logging.Args(logging.Error(err))...)
		return
	}
	if stale := counts[job.StatusProcessing]; stale > 0 {
		j.logger.Info("jobs in processing", logging.Args(logging.Int("count", stale))...)
	}
}
