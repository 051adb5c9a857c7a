package progress

import (
	"context"
	"sync"
	"time"
)

// AdvanceFunc is called for a job whose output has gone quiet. It should
// apply the artificial advance and report whether the job is still worth
// watching; returning false drops the job from the monitor.
type AdvanceFunc func(id string) bool

// Monitor watches in-flight jobs and nudges their perceived progress when
// the conversion tool produces no output for longer than the stall
// threshold. This is a UX heuristic, not a measurement: pollers see forward
// motion during CPU-bound silent phases instead of an apparently stuck job.
type Monitor struct {
	interval   time.Duration
	stallAfter time.Duration
	advance    AdvanceFunc

	mu      sync.Mutex
	watches map[string]time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor constructs a stall monitor. interval controls how often jobs
// are inspected; stallAfter is how long a job may stay silent before it is
// nudged.
func NewMonitor(interval, stallAfter time.Duration, advance AdvanceFunc) *Monitor {
	return &Monitor{
		interval:   interval,
		stallAfter: stallAfter,
		advance:    advance,
		watches:    make(map[string]time.Time),
	}
}

// Start launches the periodic sweep. It is a no-op when already running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	go m.run(runCtx, done)
}

// Stop halts the sweep and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Watch registers a job for stall detection.
func (m *Monitor) Watch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches[id] = time.Now()
}

// Touch records real progress for a job, resetting its stall clock.
func (m *Monitor) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watches[id]; ok {
		m.watches[id] = time.Now()
	}
}

// Release drops a job from stall detection. Called when its subprocess
// exits so no perpetual timer leaks.
func (m *Monitor) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches, id)
}

// run owns its done channel so a Stop that lands before the goroutine exits,
// or a Stop/Start restart, never races the field on the struct.
func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *Monitor) sweep(now time.Time) {
	m.mu.Lock()
	stalled := make([]string, 0, len(m.watches))
	for id, last := range m.watches {
		if now.Sub(last) >= m.stallAfter {
			stalled = append(stalled, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stalled {
		if m.advance != nil && m.advance(id) {
			m.Touch(id)
			continue
		}
		m.Release(id)
	}
}
