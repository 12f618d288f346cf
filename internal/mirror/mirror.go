// Package mirror walks a source tree top-down and keeps a structurally
// identical directory tree in place under an output root.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/texbatch/internal/sandbox"
)

// Dir is one directory of the source tree together with its mirrored
// location under the output root.
type Dir struct {
	SourceDir string   // absolute source directory
	RelPath   string   // relative to the source root, "." for the root itself
	OutputDir string   // absolute mirrored directory
	Files     []string // names of non-directory entries, sorted
	Created   bool     // OutputDir did not exist before this walk visited it
}

// Options configures a walk.
type Options struct {
	SourceRoot string
	OutputRoot string

	// PlanOnly computes output directories without creating them.
	PlanOnly bool
}

// WalkFunc is called once per directory, parents before children. Returning
// an error stops the walk and Walk returns that error unchanged.
type WalkFunc func(Dir) error

// Walk visits every directory under opts.SourceRoot, including the root, in
// lexical order. Unless PlanOnly is set the mirrored output directory for
// each one is created before fn is called. A directory that cannot be created
// aborts the walk: nothing can be built without somewhere to put it.
func Walk(ctx context.Context, opts Options, fn WalkFunc) error {
	sourceRoot, err := filepath.Abs(opts.SourceRoot)
	if err != nil {
		return fmt.Errorf("resolving source root: %w", err)
	}
	outputRoot, err := filepath.Abs(opts.OutputRoot)
	if err != nil {
		return fmt.Errorf("resolving output root: %w", err)
	}

	info, err := os.Stat(sourceRoot)
	if err != nil {
		return fmt.Errorf("source root %s: %w", sourceRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source root %s is not a directory", sourceRoot)
	}

	w := &walker{
		ctx:        ctx,
		sourceRoot: sourceRoot,
		outputRoot: outputRoot,
		planOnly:   opts.PlanOnly,
		fn:         fn,
	}

	if !opts.PlanOnly {
		created, err := ensureRoot(outputRoot)
		if err != nil {
			return fmt.Errorf("creating output root %s: %w", outputRoot, err)
		}
		w.rootCreated = created
	}

	return w.visit(sourceRoot, ".")
}

type walker struct {
	ctx         context.Context
	sourceRoot  string
	outputRoot  string
	planOnly    bool
	rootCreated bool
	fn          WalkFunc
}

func (w *walker) visit(dir, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	d := Dir{
		SourceDir: dir,
		RelPath:   rel,
		OutputDir: filepath.Join(w.outputRoot, rel),
	}

	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		d.Files = append(d.Files, e.Name())
	}

	if !w.planOnly {
		if rel == "." {
			d.Created = w.rootCreated
		} else {
			created, err := sandbox.EnsureDir(w.outputRoot, rel, 0755)
			if err != nil {
				return fmt.Errorf("creating output directory %s: %w", d.OutputDir, err)
			}
			d.Created = created
		}
	}

	if err := w.fn(d); err != nil {
		return err
	}

	for _, name := range subdirs {
		child := filepath.Join(dir, name)
		// Never mirror the output tree into itself.
		if child == w.outputRoot {
			continue
		}
		if err := w.visit(child, filepath.Join(rel, name)); err != nil {
			return err
		}
	}
	return nil
}

func ensureRoot(root string) (bool, error) {
	info, err := os.Stat(root)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", root)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return false, err
	}
	return true, nil
}
