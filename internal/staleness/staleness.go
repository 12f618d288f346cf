// Package staleness decides whether a source file's output artifact needs to
// be rebuilt, using modification times only.
package staleness

import (
	"fmt"
	"os"
)

// State is the result of a staleness check.
type State int

const (
	UpToDate State = iota
	Stale
)

func (s State) String() string {
	if s == Stale {
		return "stale"
	}
	return "up-to-date"
}

// Filter gates compilation of a source file.
type Filter struct {
	// Always makes every source Stale, for full rebuilds.
	Always bool
}

// Check compares sourcePath against artifactPath.
//
// The artifact is Stale when it is missing or strictly older than the source.
// Equal timestamps count as UpToDate: on filesystems with coarse mtime
// resolution this avoids rebuild storms, at the cost of missing an edit that
// lands in the same tick as the previous build.
//
// An artifact path that cannot be stat'ed or is a directory is treated as
// Stale; the compiler will surface the real problem. An error is returned only
// when the source itself cannot be stat'ed.
func (f Filter) Check(sourcePath, artifactPath string) (State, error) {
	src, err := os.Stat(sourcePath)
	if err != nil {
		return Stale, fmt.Errorf("stat source %s: %w", sourcePath, err)
	}

	if f.Always {
		return Stale, nil
	}

	art, err := os.Stat(artifactPath)
	if err != nil || art.IsDir() {
		return Stale, nil
	}

	if art.ModTime().Before(src.ModTime()) {
		return Stale, nil
	}
	return UpToDate, nil
}
