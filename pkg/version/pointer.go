package version

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

// Activate atomically repoints the `current` symlink at version n. The new
// link is created under a temporary name and renamed over the old one, so a
// reader of `current` sees either the old version or the new one, never a
// missing pointer. The symlink target is relative, keeping the build root
// relocatable.
func Activate(buildRoot string, n int) error {
	target := fmt.Sprintf("v%d", n)
	if _, err := os.Stat(filepath.Join(buildRoot, target)); err != nil {
		return errors.Wrap(errors.ErrCodeVersionNotFound, err, "version v%d does not exist in %s", n, buildRoot)
	}

	tmp := filepath.Join(buildRoot, ".current.tmp")
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "create pointer symlink")
	}
	if err := os.Rename(tmp, filepath.Join(buildRoot, CurrentName)); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "activate v%d", n)
	}
	return nil
}

// Current returns the version number the `current` pointer refers to, or 0
// when no version is active yet.
func Current(buildRoot string) (int, error) {
	target, err := os.Readlink(filepath.Join(buildRoot, CurrentName))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeVersionResolution, err, "read current pointer in %s", buildRoot)
	}

	name := filepath.Base(target)
	if !strings.HasPrefix(name, "v") {
		return 0, errors.New(errors.ErrCodeVersionResolution, "current points at %q, not a version directory", target)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n <= 0 {
		return 0, errors.New(errors.ErrCodeVersionResolution, "current points at %q, not a version directory", target)
	}
	return n, nil
}
