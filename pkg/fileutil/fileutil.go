// Package fileutil resolves user supplied paths.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no file matches, in any letter case.
var ErrNotFound = errors.New("file not found")

// ResolvePath returns path unchanged when it exists. Otherwise it looks
// for an entry in the same directory whose name matches the last element
// case-insensitively, so "DRUMS.TXT" finds "drums.txt" on a case sensitive
// file system. Directories match too.
func ResolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	found, err := FindFileCaseInsensitive(dir, name)
	if err != nil {
		return "", err
	}
	return found, nil
}

// FindFileCaseInsensitive searches dir for an entry named filename,
// ignoring letter case.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
}
