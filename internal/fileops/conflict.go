package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConflictPolicy is the strategy for resolving a filesystem name collision.
type ConflictPolicy string

const (
	// PolicyAbort returns a ConflictError when the destination exists.
	PolicyAbort ConflictPolicy = "abort"
	// PolicyReplace deletes the existing entry and reuses its name.
	PolicyReplace ConflictPolicy = "replace"
	// PolicyKeepBoth derives a "<base> copy<N><ext>" name that is unused.
	PolicyKeepBoth ConflictPolicy = "keepBoth"
)

// ParseConflictPolicy validates a policy string, defaulting to keepBoth
// for the empty string.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case PolicyAbort, PolicyReplace, PolicyKeepBoth:
		return ConflictPolicy(s), nil
	case "":
		return PolicyKeepBoth, nil
	}
	return "", fmt.Errorf("%w: unknown conflict policy %q", ErrInvalidName, s)
}

// Resolve maps a desired destination path to an actual destination path
// according to the policy. reserved is an optional caller-supplied set of
// in-flight destination paths that must be treated as occupied even though
// nothing exists on disk yet; multi-file import chooses several destinations
// before any file is written.
//
// Under PolicyAbort an occupied destination yields a *ConflictError carrying
// the colliding entry's name.
func Resolve(desired string, policy ConflictPolicy, reserved map[string]bool) (string, error) {
	if !occupied(desired, reserved) {
		return desired, nil
	}

	switch policy {
	case PolicyAbort:
		return "", &ConflictError{Existing: filepath.Base(desired)}

	case PolicyReplace:
		if _, err := os.Lstat(desired); err == nil {
			if err := os.RemoveAll(desired); err != nil {
				return "", opFailed(ReasonReplaceFailed, err)
			}
		}
		return desired, nil

	case PolicyKeepBoth:
		return keepBothName(desired, reserved)
	}

	return "", fmt.Errorf("%w: unknown conflict policy %q", ErrInvalidName, string(policy))
}

// keepBothName generates "<base> copy<ext>", then "<base> copy 2<ext>",
// "<base> copy 3<ext>", ... until an unused name is found.
func keepBothName(desired string, reserved map[string]bool) (string, error) {
	dir := filepath.Dir(desired)
	ext := filepath.Ext(desired)
	base := strings.TrimSuffix(filepath.Base(desired), ext)

	for n := 1; n < 10000; n++ {
		var name string
		if n == 1 {
			name = fmt.Sprintf("%s copy%s", base, ext)
		} else {
			name = fmt.Sprintf("%s copy %d%s", base, n, ext)
		}
		candidate := filepath.Join(dir, name)
		if !occupied(candidate, reserved) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free name found for %s", desired)
}

// occupied reports whether a path exists on disk or is reserved in-flight.
func occupied(path string, reserved map[string]bool) bool {
	if reserved != nil && reserved[path] {
		return true
	}
	_, err := os.Lstat(path)
	return err == nil
}
