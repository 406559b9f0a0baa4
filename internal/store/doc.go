// Package store persists the librarian's lightweight state as independent
// flat JSON documents: per-file metadata (tags, favorite, hidden),
// preferences, online profile records, and the configured roots.
//
// Every store keeps its full state in memory as the source of truth and
// debounces disk writes: each mutation re-arms a short timer, so rapid
// successive edits collapse into one write. Flush forces the pending write,
// which main calls during shutdown.
//
// Documents are written atomically via a temporary sibling file and rename.
package store
