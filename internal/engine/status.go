package engine

import (
	"context"
	"path/filepath"

	"github.com/bianoble/texbatch/internal/mirror"
	"github.com/bianoble/texbatch/internal/staleness"
)

// Status reports the staleness of every source file without touching the
// output tree.
func (e *Engine) Status(ctx context.Context) ([]FileStatus, error) {
	e, err := e.prepare()
	if err != nil {
		return nil, err
	}

	var filter staleness.Filter
	var out []FileStatus

	err = mirror.Walk(ctx, mirror.Options{
		SourceRoot: e.SourceRoot,
		OutputRoot: e.OutputRoot,
		PlanOnly:   true,
	}, func(d mirror.Dir) error {
		for _, name := range d.Files {
			base := e.baseName(name)
			if base == "" {
				continue
			}
			fs := FileStatus{
				Source:   relSource(d.RelPath, name),
				Artifact: filepath.Join(d.OutputDir, base+e.Compiler.FinalExt()),
			}
			fs.State, fs.Err = filter.Check(filepath.Join(d.SourceDir, name), fs.Artifact)
			out = append(out, fs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
