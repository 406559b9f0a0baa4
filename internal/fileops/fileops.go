package fileops

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-librarian/internal/logging"
	"media-librarian/internal/metrics"
)

// MetadataMover migrates per-file annotations when a file's absolute path
// changes. The metadata store keys entries by absolute path, so every rename
// or move must carry the entry along or it is orphaned.
type MetadataMover interface {
	MovePath(oldPath, newPath string)
}

// Ops performs filesystem mutations on library items and directories.
// Deletions are recoverable: entries are moved into the trash directory
// rather than removed permanently.
type Ops struct {
	trashDir string
	meta     MetadataMover
}

// New creates an Ops instance. meta may be nil, in which case annotations
// are not migrated on rename or move.
func New(trashDir string, meta MetadataMover) *Ops {
	return &Ops{trashDir: trashDir, meta: meta}
}

// observeOp records operation metrics: one counter by operation and status,
// one duration histogram by operation.
func observeOp(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.FileOperationsTotal.WithLabelValues(op, status).Inc()
	metrics.FileOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// validateName rejects empty names, ".", "..", and anything containing a
// path separator.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}

// Rename gives the file at path a new name in the same directory.
// Returns the resulting path. Renaming to the current name is a no-op.
func (o *Ops) Rename(path, newName string, policy ConflictPolicy) (final string, err error) {
	start := time.Now()
	defer func() { observeOp("rename", start, err) }()

	if err = validateName(newName); err != nil {
		return "", err
	}
	if _, statErr := os.Lstat(path); statErr != nil {
		return "", ErrNotFound
	}

	desired := filepath.Join(filepath.Dir(path), newName)
	if desired == path {
		return path, nil
	}

	final, err = Resolve(desired, policy, nil)
	if err != nil {
		return "", err
	}
	if final == path {
		return path, nil
	}

	if renameErr := os.Rename(path, final); renameErr != nil {
		err = opFailed(ReasonRenameFailed, renameErr)
		return "", err
	}

	o.migrate(path, final)
	return final, nil
}

// Move relocates the file at path into destDir, keeping its name.
// Returns the resulting path.
func (o *Ops) Move(path, destDir string, policy ConflictPolicy) (final string, err error) {
	start := time.Now()
	defer func() { observeOp("move", start, err) }()

	if _, statErr := os.Lstat(path); statErr != nil {
		return "", ErrNotFound
	}
	if info, statErr := os.Stat(destDir); statErr != nil || !info.IsDir() {
		return "", ErrNotFound
	}

	desired := filepath.Join(destDir, filepath.Base(path))
	if desired == path {
		return path, nil
	}

	final, err = Resolve(desired, policy, nil)
	if err != nil {
		return "", err
	}

	if renameErr := os.Rename(path, final); renameErr != nil {
		err = opFailed(ReasonMoveFailed, renameErr)
		return "", err
	}

	o.migrate(path, final)
	return final, nil
}

// Delete moves the file at path into the trash directory. The trashed copy
// keeps its name, uniquified if a previous deletion already used it.
func (o *Ops) Delete(path string) (err error) {
	start := time.Now()
	defer func() { observeOp("delete", start, err) }()

	info, statErr := os.Lstat(path)
	if statErr != nil {
		return ErrNotFound
	}
	if info.IsDir() {
		return ErrUnsupported
	}

	if err = o.moveToTrash(path, ReasonDeleteFailed); err != nil {
		return err
	}
	return nil
}

// RenameDirectory gives the directory at path a new name.
// Returns the resulting path.
func (o *Ops) RenameDirectory(path, newName string, policy ConflictPolicy) (final string, err error) {
	start := time.Now()
	defer func() { observeOp("rename_directory", start, err) }()

	if err = validateName(newName); err != nil {
		return "", err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		return "", ErrNotFound
	}
	if !info.IsDir() {
		return "", ErrUnsupported
	}

	desired := filepath.Join(filepath.Dir(path), newName)
	if desired == path {
		return path, nil
	}

	final, err = Resolve(desired, policy, nil)
	if err != nil {
		return "", err
	}

	if renameErr := os.Rename(path, final); renameErr != nil {
		err = opFailed(ReasonDirectoryRenameFailed, renameErr)
		return "", err
	}

	return final, nil
}

// DeleteDirectory moves the directory at path into the trash directory.
func (o *Ops) DeleteDirectory(path string) (err error) {
	start := time.Now()
	defer func() { observeOp("delete_directory", start, err) }()

	info, statErr := os.Stat(path)
	if statErr != nil {
		return ErrNotFound
	}
	if !info.IsDir() {
		return ErrUnsupported
	}

	if err = o.moveToTrash(path, ReasonDirectoryDeleteFailed); err != nil {
		return err
	}
	return nil
}

// moveToTrash relocates an entry into the trash directory under a unique
// name so repeated deletions of equally-named files never clobber each other.
func (o *Ops) moveToTrash(path, reason string) error {
	if err := os.MkdirAll(o.trashDir, 0o755); err != nil {
		return opFailed(reason, err)
	}

	dest, err := Resolve(filepath.Join(o.trashDir, filepath.Base(path)), PolicyKeepBoth, nil)
	if err != nil {
		return opFailed(reason, err)
	}

	if err := os.Rename(path, dest); err != nil {
		return opFailed(reason, err)
	}
	return nil
}

// migrate carries per-file annotations from an old path to a new one.
func (o *Ops) migrate(oldPath, newPath string) {
	if o.meta == nil {
		return
	}
	o.meta.MovePath(oldPath, newPath)
	logging.Debug("migrated metadata %s -> %s", oldPath, newPath)
}
