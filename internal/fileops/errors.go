package fileops

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural validation failures. These are always
// recoverable and surfaced directly to the caller.
var (
	// ErrInvalidName indicates a user-supplied name or URL failed validation.
	ErrInvalidName = errors.New("invalid name")

	// ErrNotFound indicates the target of an operation no longer exists;
	// the caller's view of the library is stale and a rescan is advised.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported indicates an operation was attempted on an entity of
	// the wrong kind, e.g. a directory operation pointed at a file.
	ErrUnsupported = errors.New("unsupported target")
)

// ConflictError reports that a destination is already occupied under the
// abort policy. Existing carries the colliding name for user-facing messages.
type ConflictError struct {
	Existing string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("destination already exists: %s", e.Existing)
}

// Operation-specific reason codes attached to OperationError.
const (
	ReasonRenameFailed          = "rename_failed"
	ReasonMoveFailed            = "move_failed"
	ReasonDeleteFailed          = "delete_failed"
	ReasonReorderStageOneFailed = "reorder_stage_one_failed"
	ReasonReorderStageTwoFailed = "reorder_stage_two_failed"
	ReasonReplaceFailed         = "replace_failed"
	ReasonDirectoryRenameFailed = "directory_rename_failed"
	ReasonDirectoryDeleteFailed = "directory_delete_failed"
)

// OperationError wraps an underlying filesystem failure with an
// operation-specific reason code for diagnostics.
type OperationError struct {
	Reason string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// opFailed builds an OperationError with the given reason code.
func opFailed(reason string, err error) error {
	return &OperationError{Reason: reason, Err: err}
}
