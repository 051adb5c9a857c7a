// Package daemon assembles the long-running trackrip process: job store,
// orchestrator, history ledger, HTTP API, retention janitor, and the single
// instance lock.
package daemon
