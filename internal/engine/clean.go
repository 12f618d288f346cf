package engine

import (
	"context"
	"errors"
	"os"

	"github.com/bianoble/texbatch/internal/mirror"
	"github.com/bianoble/texbatch/internal/runlock"
)

// Clean sweeps the byproducts of every source file from the output tree.
// Artifacts and directories are left alone. With dryRun set nothing is
// removed and Pending lists what would be.
func (e *Engine) Clean(ctx context.Context, dryRun bool) (*CleanResult, error) {
	e, err := e.prepare()
	if err != nil {
		return nil, err
	}

	res := &CleanResult{}
	if _, err := os.Stat(e.OutputRoot); errors.Is(err, os.ErrNotExist) {
		return res, nil
	}

	if !dryRun {
		lk, err := runlock.Acquire(e.OutputRoot)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lk.Release(); err != nil {
				e.logger().Warn("failed to release run lock", "error", err)
			}
		}()
	}

	sw := e.sweeper()
	err = mirror.Walk(ctx, mirror.Options{
		SourceRoot: e.SourceRoot,
		OutputRoot: e.OutputRoot,
		PlanOnly:   true,
	}, func(d mirror.Dir) error {
		if info, err := os.Stat(d.OutputDir); err != nil || !info.IsDir() {
			return nil
		}
		for _, name := range d.Files {
			base := e.baseName(name)
			if base == "" {
				continue
			}
			if dryRun {
				res.Pending = append(res.Pending, sw.Pending(d.OutputDir, base)...)
				continue
			}
			swept := sw.Sweep(d.OutputDir, base)
			res.Removed = append(res.Removed, swept.Removed...)
			res.Failed = append(res.Failed, swept.Failed...)
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}
