// Package workers provides worker pool sizing utilities that respect
// container CPU limits.
//
// Worker counts are derived from GOMAXPROCS with a task-type multiplier
// (CPU-bound vs I/O-bound) and an optional hard cap, and can be overridden
// with the LIBRARY_WORKERS environment variable.
package workers
