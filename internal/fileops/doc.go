// Package fileops performs filesystem mutations on library items and
// directories: rename, move, recoverable delete, and sibling reordering.
//
// Name collisions are handled by a pluggable conflict policy (abort, replace,
// keepBoth) shared with the online importer. Deletions move entries into a
// trash directory rather than removing them permanently.
//
// The error taxonomy defined here (ErrInvalidName, ErrNotFound,
// ErrUnsupported, ConflictError, OperationError) is shared by every component
// that mutates the library; callers map it to user-facing messages.
package fileops
