// Package orchestrator drives extraction jobs from submission to a terminal
// state.
//
// The controller accepts jobs, spawns the external conversion tool through
// the converter client, estimates progress from the tool's output lines,
// nudges silent jobs via the stall monitor, discovers the produced artifact,
// and finalizes the job record. Completed jobs can be expired after a
// configurable retention window.
package orchestrator
