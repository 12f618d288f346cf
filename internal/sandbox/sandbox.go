// Package sandbox keeps filesystem mutations on the output tree contained
// within the output root.
package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks that relPath, joined onto root, stays within root after
// symlinks are resolved. It returns the resolved absolute path.
// The root itself must exist.
func ValidatePath(root, relPath string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	// Trailing separator so "out2" is not accepted for "out".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the output root '%s'", relPath, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of the path,
// then appends the non-existing suffix.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedDir, base), nil
}

// EnsureDir creates relPath (and any missing parents) below root.
// It is idempotent: an existing directory is not an error. created reports
// whether the directory had to be made.
func EnsureDir(root, relPath string, perm os.FileMode) (created bool, err error) {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return false, err
	}

	info, statErr := os.Stat(resolved)
	if statErr == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", resolved)
		}
		return false, nil
	}
	if !errors.Is(statErr, fs.ErrNotExist) {
		return false, statErr
	}

	if err := os.MkdirAll(resolved, perm); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveFile deletes relPath below root. A missing file is not an error;
// removed reports whether something was actually deleted.
func RemoveFile(root, relPath string) (removed bool, err error) {
	resolved, err := ValidatePath(root, relPath)
	if err != nil {
		return false, err
	}

	if err := os.Remove(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
