package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"trackrip/internal/config"
	"trackrip/internal/history"
	"trackrip/internal/jobfile"
	"trackrip/internal/jobstore"
	"trackrip/internal/logging"
	"trackrip/internal/orchestrator"
	"trackrip/internal/services/converter"
)

// Daemon wires the job store, orchestrator, history ledger, HTTP listener,
// and retention janitor into one process.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *jobstore.Store
	ledger     *history.Ledger
	controller *orchestrator.Controller
	api        *apiServer
	janitor    *janitor
	lock       *flock.Flock

	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	JobDir       string
	HistoryPath  string
	LockFilePath string
	JobCounts    map[string]int
}

// New constructs a daemon from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	adapter, err := jobfile.NewAdapter(cfg.JobDir())
	if err != nil {
		return nil, err
	}
	store, err := jobstore.New(adapter)
	if err != nil {
		return nil, err
	}

	ledger, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return nil, fmt.Errorf("open history ledger: %w", err)
	}

	extractor, err := converter.New(cfg.Converter.Binary, cfg.ConverterTimeout())
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	controller, err := orchestrator.New(cfg, store, extractor, ledger, logger)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "daemon"),
		store:      store,
		ledger:     ledger,
		controller: controller,
		lock:       flock.New(cfg.LockPath()),
	}

	d.api, err = newAPIServer(cfg, d, logger)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	d.janitor, err = newJanitor(cfg, d, logger)
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}
	return d, nil
}

// Start acquires the daemon lock and launches all subsystems.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another trackrip daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.controller.Start(d.ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.controller.Stop()
			_ = d.lock.Unlock()
			return err
		}
	}
	if d.janitor != nil {
		d.janitor.start()
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.Args(
			logging.String("job_dir", d.cfg.JobDir()),
			logging.String("bind", d.cfg.API.Bind),
		)...)
	return nil
}

// Stop shuts down all subsystems and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.janitor != nil {
		d.janitor.stop()
	}
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.controller.Stop()
	if err := d.ledger.Close(); err != nil {
		d.logger.Warn("history ledger close failed", logging.Args(logging.Error(err))...)
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("lock release failed", logging.Args(logging.Error(err))...)
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Wait blocks until the daemon context ends.
func (d *Daemon) Wait() {
	if d.ctx != nil {
		<-d.ctx.Done()
	}
}

// APIAddr returns the bound HTTP listener address, empty when the API is
// disabled or not started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Controller exposes the orchestrator for submission paths.
func (d *Daemon) Controller() *orchestrator.Controller {
	return d.controller
}

// Store exposes the job store for read paths.
func (d *Daemon) Store() *jobstore.Store {
	return d.store
}

// Ledger exposes the history ledger.
func (d *Daemon) Ledger() *history.Ledger {
	return d.ledger
}

// Status summarizes daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		JobDir:       d.cfg.JobDir(),
		HistoryPath:  d.cfg.HistoryPath(),
		LockFilePath: d.cfg.LockPath(),
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.JobCounts = make(map[string]int, len(counts))
		for k, v := range counts {
			status.JobCounts[string(k)] = v
		}
	}
	return status
}
