package testsupport

import (
	"testing"
	"time"
)

// WaitFor polls fn until it returns true or the timeout expires.
func WaitFor(t testing.TB, timeout time.Duration, fn func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, message)
}
