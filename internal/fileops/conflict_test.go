package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveNoConflict(t *testing.T) {
	dir := t.TempDir()
	desired := filepath.Join(dir, "a.jpg")

	got, err := Resolve(desired, PolicyAbort, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != desired {
		t.Errorf("Resolve() = %q, want %q", got, desired)
	}
}

func TestResolveAbort(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.jpg")
	touch(t, existing)

	_, err := Resolve(existing, PolicyAbort, nil)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Resolve() error = %v, want ConflictError", err)
	}
	if conflict.Existing != "a.jpg" {
		t.Errorf("ConflictError.Existing = %q, want %q", conflict.Existing, "a.jpg")
	}
}

func TestResolveReplace(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.jpg")
	touch(t, existing)

	got, err := Resolve(existing, PolicyReplace, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != existing {
		t.Errorf("Resolve() = %q, want %q", got, existing)
	}
	if _, err := os.Lstat(existing); !os.IsNotExist(err) {
		t.Error("existing file should have been deleted under replace policy")
	}
}

func TestResolveKeepBoth(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))

	got, err := Resolve(filepath.Join(dir, "a.jpg"), PolicyKeepBoth, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(dir, "a copy.jpg"); got != want {
		t.Errorf("first Resolve() = %q, want %q", got, want)
	}

	touch(t, got)
	got, err = Resolve(filepath.Join(dir, "a.jpg"), PolicyKeepBoth, nil)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if want := filepath.Join(dir, "a copy 2.jpg"); got != want {
		t.Errorf("second Resolve() = %q, want %q", got, want)
	}
}

func TestResolveKeepBothReservedSet(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))

	// Nothing on disk at "a copy.jpg", but a concurrent import already
	// claimed it.
	reserved := map[string]bool{
		filepath.Join(dir, "a copy.jpg"): true,
	}

	got, err := Resolve(filepath.Join(dir, "a.jpg"), PolicyKeepBoth, reserved)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := filepath.Join(dir, "a copy 2.jpg"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ConflictPolicy
		wantErr bool
	}{
		{name: "abort", input: "abort", want: PolicyAbort},
		{name: "replace", input: "replace", want: PolicyReplace},
		{name: "keepBoth", input: "keepBoth", want: PolicyKeepBoth},
		{name: "empty defaults to keepBoth", input: "", want: PolicyKeepBoth},
		{name: "unknown", input: "merge", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConflictPolicy(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Errorf("ParseConflictPolicy(%q) error = %v, want ErrInvalidName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConflictPolicy(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseConflictPolicy(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
