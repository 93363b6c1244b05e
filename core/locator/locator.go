// Package locator finds files by walking up the directory tree.
package locator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no directory between the start directory and
// the filesystem root contains the requested name.
var ErrNotFound = errors.New("locator: not found")

// FindDir returns the first directory, starting at startDir and moving
// through its ancestors, that contains an entry called name. Files and
// directories both count as a match. name may span several segments such as
// "webapp/package.json". A path that cannot be stat'ed for any reason counts
// as absent.
func FindDir(startDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("locator: empty name")
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("locator: resolve %q: %w", startDir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s above %s", ErrNotFound, name, startDir)
		}
		dir = parent
	}
}

// FindFile is like FindDir but returns the full path of the match. For a
// multi-segment name the file's own directory is filepath.Dir of the result,
// not the directory FindDir reports.
func FindFile(startDir, name string) (string, error) {
	dir, err := FindDir(startDir, name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
