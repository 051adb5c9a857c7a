// Package jobstore provides the cache-with-fallback job record store.
//
// Memory is the fast path; every mutation writes through to the per-job
// file before it is considered successful. Reads that miss memory fall back
// to disk and repopulate the cache, which is what lets a freshly restarted
// process answer status queries for jobs submitted before the restart.
package jobstore
