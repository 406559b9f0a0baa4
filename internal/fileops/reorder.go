package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-librarian/internal/logging"
)

// Direction selects which neighbor a reordered item swaps with.
type Direction string

const (
	// DirectionPrevious swaps the item with the one before it.
	DirectionPrevious Direction = "previous"
	// DirectionNext swaps the item with the one after it.
	DirectionNext Direction = "next"
)

// numericPrefix matches the ordering prefix this package writes, so a
// re-reorder strips the old index before applying the new one.
var numericPrefix = regexp.MustCompile(`^[0-9]+ - `)

// Reorder swaps target with its immediate neighbor in the caller's display
// order, then rewrites every sibling's on-disk name to a zero-padded
// "<index> - <base><ext>" form reflecting the new order. siblings must be the
// full list of participating paths in current display order and include
// target.
//
// Renames run in two phases through uniquely-named temporary files so no
// intermediate state can collide with another sibling's current name. A
// phase-one failure leaves temporary files behind with no rollback; the
// caller must rescan to learn the actual on-disk names. Temporary names are
// dot-prefixed so a rescan simply drops them from the library.
//
// Returns the target's resulting path. Reordering a lone item, or past either
// end of the list, performs zero filesystem writes and returns the original
// path unchanged.
func (o *Ops) Reorder(target string, siblings []string, direction Direction) (final string, err error) {
	start := time.Now()
	defer func() { observeOp("reorder", start, err) }()

	if len(siblings) <= 1 {
		return target, nil
	}

	idx := -1
	for i, p := range siblings {
		if p == target {
			idx = i
			break
		}
	}
	if idx == -1 {
		return target, nil
	}

	swap := idx - 1
	if direction == DirectionNext {
		swap = idx + 1
	}
	if swap < 0 || swap >= len(siblings) {
		return target, nil
	}

	order := make([]string, len(siblings))
	copy(order, siblings)
	order[idx], order[swap] = order[swap], order[idx]

	dir := filepath.Dir(target)
	names, err := o.assignNames(dir, order)
	if err != nil {
		return "", err
	}

	type rename struct {
		from, to string
	}
	var renames []rename
	for i, p := range order {
		if filepath.Base(p) != names[i] {
			renames = append(renames, rename{from: p, to: filepath.Join(dir, names[i])})
		}
	}
	if len(renames) == 0 {
		return target, nil
	}

	// Phase 1: move every sibling needing a new name out of the way.
	temps := make([]string, len(renames))
	for i, r := range renames {
		temps[i] = filepath.Join(dir, ".reorder-"+uuid.NewString())
		if renameErr := os.Rename(r.from, temps[i]); renameErr != nil {
			logging.Error("reorder stage one failed at %s: %v", r.from, renameErr)
			err = opFailed(ReasonReorderStageOneFailed, renameErr)
			return "", err
		}
	}

	// Phase 2: land every temporary file on its final name.
	for i, r := range renames {
		if renameErr := os.Rename(temps[i], r.to); renameErr != nil {
			logging.Error("reorder stage two failed at %s: %v", r.to, renameErr)
			err = opFailed(ReasonReorderStageTwoFailed, renameErr)
			return "", err
		}
		o.migrate(r.from, r.to)
	}

	final = target
	for _, r := range renames {
		if r.from == target {
			final = r.to
			break
		}
	}
	return final, nil
}

// assignNames computes the final file name for each path in order, resolving
// collisions against non-participant files in dir and against the other
// assigned names with a " (2)", " (3)", ... suffix on the base.
func (o *Ops) assignNames(dir string, order []string) ([]string, error) {
	participants := make(map[string]bool, len(order))
	for _, p := range order {
		participants[filepath.Base(p)] = true
	}

	taken := map[string]bool{}
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if !participants[e.Name()] {
				taken[e.Name()] = true
			}
		}
	}

	width := len(strconv.Itoa(len(order)))
	if width < 3 {
		width = 3
	}

	names := make([]string, len(order))
	for i, p := range order {
		ext := filepath.Ext(p)
		base := strings.TrimSuffix(filepath.Base(p), ext)
		base = strings.TrimSpace(numericPrefix.ReplaceAllString(base, ""))
		if base == "" {
			base = "untitled"
		}

		name := fmt.Sprintf("%0*d - %s%s", width, i+1, base, ext)
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%0*d - %s (%d)%s", width, i+1, base, n, ext)
		}
		taken[name] = true
		names[i] = name
	}

	return names, nil
}
