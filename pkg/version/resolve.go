// Package version manages the versioned build directories of one
// presentation: it resolves the next version number, writes complete version
// directories, and swaps the `current` pointer atomically.
//
// A build root holds `v1`, `v2`, ... plus a `current` symlink to the active
// version. Version directories are append-only: a rebuild always creates a
// new vN, and rollback only moves the pointer.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

// CurrentName is the name of the active-version symlink in a build root.
const CurrentName = "current"

// Resolve scans a build root and returns the next version number together
// with the previous version's directory (empty for a first build). Entries
// not starting with "v" are ignored; an entry that starts with "v" but does
// not continue with a positive integer poisons resolution, because silently
// skipping it could resurrect a number already in use.
func Resolve(buildRoot string) (next int, prevDir string, err error) {
	entries, err := os.ReadDir(buildRoot)
	if os.IsNotExist(err) {
		return 1, "", nil
	}
	if err != nil {
		return 0, "", errors.Wrap(errors.ErrCodeInternal, err, "scan build root %s", buildRoot)
	}

	highest := 0
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "v") || name == CurrentName {
			continue
		}
		n, convErr := strconv.Atoi(name[1:])
		if convErr != nil || n <= 0 {
			return 0, "", errors.New(errors.ErrCodeVersionResolution,
				"entry %q in %s looks like a version directory but is not v<number>", name, buildRoot)
		}
		if n > highest {
			highest = n
		}
	}

	if highest == 0 {
		return 1, "", nil
	}
	return highest + 1, filepath.Join(buildRoot, fmt.Sprintf("v%d", highest)), nil
}

// List returns the existing version numbers in ascending order.
func List(buildRoot string) ([]int, error) {
	entries, err := os.ReadDir(buildRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "scan build root %s", buildRoot)
	}

	var versions []int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "v") || name == CurrentName {
			continue
		}
		if n, err := strconv.Atoi(name[1:]); err == nil && n > 0 {
			versions = append(versions, n)
		}
	}
	sort.Ints(versions)
	return versions, nil
}

// Dir returns the directory of version n under buildRoot.
func Dir(buildRoot string, n int) string {
	return filepath.Join(buildRoot, fmt.Sprintf("v%d", n))
}
