// Package engine runs the batch: it walks the source tree, decides what is
// stale, compiles, sweeps byproducts and tallies the outcome.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/bianoble/texbatch/internal/config"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/bianoble/texbatch/internal/sweep"
)

// Engine holds everything a run needs. Zero-valued optional fields take their
// defaults.
type Engine struct {
	SourceRoot string
	OutputRoot string
	SourceExt  string // default ".tex"; matched case-sensitively
	Compiler   Compiler

	// CompilerName is recorded in run reports.
	CompilerName string

	Byproducts []string // default sweep.DefaultByproducts
	TailLimit  int      // default report.DefaultTailLimit
	Logger     *slog.Logger
	Progress   ProgressFunc
}

func (e *Engine) validate() error {
	var errs []error
	if e.SourceRoot == "" {
		errs = append(errs, errors.New("source root required"))
	}
	if e.OutputRoot == "" {
		errs = append(errs, errors.New("output root required"))
	}
	if e.Compiler == nil {
		errs = append(errs, errors.New("compiler required"))
	}
	return errors.Join(errs...)
}

// prepare validates e and returns a copy whose roots are absolute. The walker
// hands out absolute directories, so relative roots would not line up with
// them.
func (e *Engine) prepare() (*Engine, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	r := *e
	var err error
	if r.SourceRoot, err = filepath.Abs(e.SourceRoot); err != nil {
		return nil, fmt.Errorf("resolving source root: %w", err)
	}
	if r.OutputRoot, err = filepath.Abs(e.OutputRoot); err != nil {
		return nil, fmt.Errorf("resolving output root: %w", err)
	}
	return &r, nil
}

func (e *Engine) sourceExt() string {
	if e.SourceExt == "" {
		return config.DefaultSourceExt
	}
	return e.SourceExt
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

func (e *Engine) tailLimit() int {
	if e.TailLimit <= 0 {
		return report.DefaultTailLimit
	}
	return e.TailLimit
}

func (e *Engine) sweeper() *sweep.Sweeper {
	return sweep.New(e.OutputRoot, e.Byproducts, e.logger())
}

func (e *Engine) emit(ev Event) {
	if e.Progress != nil {
		e.Progress(ev)
	}
}

// baseName returns name without the source extension, or "" when name is not
// a source file.
func (e *Engine) baseName(name string) string {
	ext := e.sourceExt()
	if !strings.HasSuffix(name, ext) {
		return ""
	}
	return strings.TrimSuffix(name, ext)
}

// relSource is the slash-separated path of a source relative to the root.
func relSource(dirRel, name string) string {
	return filepath.ToSlash(filepath.Join(dirRel, name))
}
