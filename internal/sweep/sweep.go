// Package sweep removes the transient byproducts an external compiler leaves
// next to its output artifact.
package sweep

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bianoble/texbatch/internal/sandbox"
)

// DefaultByproducts are the LaTeX toolchain files that never belong in the
// mirrored output tree.
var DefaultByproducts = []string{
	".aux", ".log", ".out", ".toc", ".synctex.gz",
	".fls", ".fdb_latexmk", ".bbl", ".blg",
}

// Failure pairs a byproduct path with the error that kept it from being removed.
type Failure struct {
	Path string
	Err  error
}

// Result lists what a sweep did.
type Result struct {
	Removed []string
	Failed  []Failure
}

// Sweeper deletes {dir}/{base}{ext} for each configured extension.
type Sweeper struct {
	// Root bounds every deletion; paths outside it are refused.
	Root       string
	Extensions []string
	Logger     *slog.Logger
}

// New creates a Sweeper. An empty extension list means DefaultByproducts.
func New(root string, extensions []string, logger *slog.Logger) *Sweeper {
	if len(extensions) == 0 {
		extensions = DefaultByproducts
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Sweeper{Root: root, Extensions: extensions, Logger: logger}
}

// relDir is dir relative to Root. Either may be relative to the working
// directory.
func (s *Sweeper) relDir(dir string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return "", err
	}
	return filepath.Rel(root, dir)
}

// Sweep removes every byproduct of baseName in dir. Each deletion is
// independent: missing files are skipped silently, and any other failure is
// logged as a warning and recorded without stopping the sweep.
func (s *Sweeper) Sweep(dir, baseName string) Result {
	var res Result

	rel, err := s.relDir(dir)
	if err != nil {
		s.Logger.Warn("byproduct sweep skipped",
			slog.String("dir", dir),
			slog.String("base", baseName),
			slog.Any("error", err),
		)
		res.Failed = append(res.Failed, Failure{Path: dir, Err: err})
		return res
	}

	for _, ext := range s.Extensions {
		name := baseName + ext
		path := filepath.Join(dir, name)

		removed, err := sandbox.RemoveFile(s.Root, filepath.Join(rel, name))
		if err != nil {
			s.Logger.Warn("failed to remove byproduct",
				slog.String("path", path),
				slog.Any("error", err),
			)
			res.Failed = append(res.Failed, Failure{Path: path, Err: err})
			continue
		}
		if removed {
			s.Logger.Debug("removed byproduct", slog.String("path", path))
			res.Removed = append(res.Removed, path)
		}
	}

	return res
}

// Pending lists the byproducts of baseName that currently exist in dir,
// without removing anything.
func (s *Sweeper) Pending(dir, baseName string) []string {
	var out []string
	for _, ext := range s.Extensions {
		path := filepath.Join(dir, baseName+ext)
		if info, err := os.Lstat(path); err == nil && !info.IsDir() {
			out = append(out, path)
		}
	}
	return out
}
