package engine

import (
	"context"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/staleness"
	"github.com/bianoble/texbatch/internal/sweep"
)

// Compiler turns one source file into an artifact in outputDir.
// *compiler.Driver is the production implementation.
type Compiler interface {
	Compile(ctx context.Context, sourcePath, outputDir string, onPass compiler.PassFunc) (*compiler.Result, error)
	FinalExt() string
	Passes() int
}

// EventKind identifies a progress event.
type EventKind int

const (
	EventDirCreated EventKind = iota
	EventProcessing
	EventPass
	EventCompiled
	EventSkipped
	EventFailed
	EventPlanned
)

// Event is the running commentary of a build.
type Event struct {
	Kind   EventKind
	Source string // relative to the source root; the directory for EventDirCreated
	Path   string // absolute path of the source, or of the created directory
	Pass   int
	Passes int
	Err    error
}

// ProgressFunc receives events in walk order on the calling goroutine.
type ProgressFunc func(Event)

// FileStatus is one source file as seen by Status.
type FileStatus struct {
	Source   string // relative to the source root
	Artifact string
	State    staleness.State
	Err      error // set when the source could not be inspected
}

// CleanResult holds the outcome of a Clean.
type CleanResult struct {
	Removed []string
	Pending []string // dry run only: what would have been removed
	Failed  []sweep.Failure
}
