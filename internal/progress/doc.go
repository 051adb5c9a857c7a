// Package progress infers job progress from conversion tool output.
//
// The tool offers no reliable progress channel, so the estimator pattern-
// matches its human-readable output lines and the monitor papers over
// silent stretches with a bounded artificial advance. Both are deliberate
// approximations; the only hard guarantee is that reported progress never
// moves backwards.
package progress
