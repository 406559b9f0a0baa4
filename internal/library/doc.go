// Package library defines the snapshot data model and the scanner that
// builds it.
//
// A Snapshot is a complete, consistent view of every configured root: a
// directory map keyed by stable id, children-by-parent and files-by-directory
// maps with deterministic case-insensitive ordering, and recursive aggregate
// file counts. Snapshots are rebuilt from scratch on every scan and never
// mutated after being published.
//
// Entry ids are derived from (rootID, relativePath) so identity is stable
// across rescans as long as the path does not change.
package library
