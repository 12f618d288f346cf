// Package runlock keeps two texbatch runs from writing the same output tree.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created at the top of the output root. It is
// never treated as a source, artifact or byproduct.
const FileName = ".texbatch.lock"

// ErrLocked means another process holds the output root.
var ErrLocked = errors.New("output root is locked by another texbatch run")

// Lock is a held advisory lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock for outputRoot without blocking. The output root is
// created if needed.
func Acquire(outputRoot string) (*Lock, error) {
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating output root %s: %w", outputRoot, err)
	}

	path := filepath.Join(outputRoot, FileName)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
