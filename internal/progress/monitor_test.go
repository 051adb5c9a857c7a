package progress_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"trackrip/internal/progress"
)

func TestMonitorAdvancesStalledJob(t *testing.T) {
	var mu sync.Mutex
	advances := map[string]int{}

	monitor := progress.NewMonitor(10*time.Millisecond, 25*time.Millisecond, func(id string) bool {
		mu.Lock()
		defer mu.Unlock()
		advances[id]++
		return true
	})
	monitor.Start(context.Background())
	defer monitor.Stop()

	monitor.Watch("stalled")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		count := advances["stalled"]
		mu.Unlock()
		if count >= 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("stalled job was never advanced")
}

func TestMonitorTouchResetsStallClock(t *testing.T) {
	var mu sync.Mutex
	advanced := 0

	monitor := progress.NewMonitor(10*time.Millisecond, 150*time.Millisecond, func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		advanced++
		return true
	})
	monitor.Start(context.Background())
	defer monitor.Stop()

	monitor.Watch("busy")
	// Keep touching for a while; the stall threshold should never elapse.
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		monitor.Touch("busy")
	}

	mu.Lock()
	defer mu.Unlock()
	if advanced != 0 {
		t.Fatalf("job with live progress must not be nudged, got %d advances", advanced)
	}
}

func TestMonitorReleaseStopsAdvances(t *testing.T) {
	var mu sync.Mutex
	advanced := 0

	monitor := progress.NewMonitor(5*time.Millisecond, 10*time.Millisecond, func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		advanced++
		return true
	})
	monitor.Start(context.Background())
	defer monitor.Stop()

	monitor.Watch("done")
	monitor.Release("done")
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if advanced != 0 {
		t.Fatalf("released job must not be advanced, got %d", advanced)
	}
}

func TestMonitorDropsJobWhenAdvanceDeclines(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	monitor := progress.NewMonitor(5*time.Millisecond, 10*time.Millisecond, func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return false // at ceiling; stop watching
	})
	monitor.Start(context.Background())
	defer monitor.Stop()

	monitor.Watch("capped")
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly one advance attempt before release, got %d", calls)
	}
}

func TestMonitorStopRightAfterStart(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 2000; i++ {
		monitor := progress.NewMonitor(time.Hour, time.Hour, nil)
		monitor.Start(ctx)
		monitor.Stop()
	}
}

func TestMonitorRestart(t *testing.T) {
	var mu sync.Mutex
	advanced := 0

	monitor := progress.NewMonitor(10*time.Millisecond, 20*time.Millisecond, func(string) bool {
		mu.Lock()
		defer mu.Unlock()
		advanced++
		return true
	})

	monitor.Start(context.Background())
	monitor.Stop()

	monitor.Start(context.Background())
	defer monitor.Stop()
	monitor.Watch("again")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		count := advanced
		mu.Unlock()
		if count >= 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("restarted monitor never swept")
}
