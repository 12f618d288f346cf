package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/mirror"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/bianoble/texbatch/internal/runlock"
	"github.com/bianoble/texbatch/internal/staleness"
	"github.com/bianoble/texbatch/internal/sweep"
)

// BuildOptions configures a build.
type BuildOptions struct {
	// Force treats every source as stale.
	Force bool
	// DryRun walks and checks staleness but creates, compiles and deletes
	// nothing. Stale files are recorded as planned.
	DryRun bool
}

// Build compiles every stale source under the source root into the mirrored
// output tree.
//
// Per-file failures are recorded in the report and do not stop the walk. A
// fatal error (compiler missing, output unwritable, lock held, cancellation)
// stops it immediately; the report accumulated so far is returned with it.
func (e *Engine) Build(ctx context.Context, opts BuildOptions) (*report.Report, error) {
	r, err := e.prepare()
	if err != nil {
		rep := report.New(e.SourceRoot, e.OutputRoot, e.CompilerName, 0)
		rep.DryRun = opts.DryRun
		rep.Finish(err)
		return rep, err
	}
	e = r

	rep := report.New(e.SourceRoot, e.OutputRoot, e.CompilerName, 0)
	rep.DryRun = opts.DryRun
	rep.Passes = e.Compiler.Passes()

	rootMissing := false
	if !opts.DryRun {
		if _, err := os.Stat(e.OutputRoot); os.IsNotExist(err) {
			rootMissing = true
		}
		lk, err := runlock.Acquire(e.OutputRoot)
		if err != nil {
			rep.Finish(err)
			return rep, err
		}
		defer func() {
			if err := lk.Release(); err != nil {
				e.logger().Warn("failed to release run lock", "error", err)
			}
		}()
	}

	b := &builder{
		Engine: e,
		opts:   opts,
		filter: staleness.Filter{Always: opts.Force},
		sweep:  e.sweeper(),
		batch:  &rep.Batch,
	}

	err = mirror.Walk(ctx, mirror.Options{
		SourceRoot: e.SourceRoot,
		OutputRoot: e.OutputRoot,
		PlanOnly:   opts.DryRun,
	}, func(d mirror.Dir) error {
		if d.Created || (d.RelPath == "." && rootMissing) {
			e.emit(Event{Kind: EventDirCreated, Source: filepath.ToSlash(d.RelPath), Path: d.OutputDir})
		}
		for _, name := range d.Files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.file(ctx, d, name); err != nil {
				return err
			}
		}
		return nil
	})

	rep.Finish(err)
	return rep, err
}

type builder struct {
	*Engine
	opts   BuildOptions
	filter staleness.Filter
	sweep  *sweep.Sweeper
	batch  *report.Batch
}

// file handles one directory entry. Only fatal errors are returned.
func (b *builder) file(ctx context.Context, d mirror.Dir, name string) error {
	base := b.baseName(name)
	if base == "" {
		return nil
	}

	src := filepath.Join(d.SourceDir, name)
	rel := relSource(d.RelPath, name)
	artifact := filepath.Join(d.OutputDir, base+b.Compiler.FinalExt())
	entry := report.Entry{Source: rel, Artifact: artifact}

	state, err := b.filter.Check(src, artifact)
	if err != nil {
		entry.Outcome = report.Failed
		entry.Diagnostic = err.Error()
		b.batch.Record(entry)
		b.emit(Event{Kind: EventFailed, Source: rel, Path: src, Err: err})
		return nil
	}

	if state == staleness.UpToDate {
		entry.Outcome = report.Skipped
		b.batch.Record(entry)
		b.emit(Event{Kind: EventSkipped, Source: rel, Path: src})
		return nil
	}

	if b.opts.DryRun {
		entry.Outcome = report.Planned
		b.batch.Record(entry)
		b.emit(Event{Kind: EventPlanned, Source: rel, Path: src})
		return nil
	}

	b.emit(Event{Kind: EventProcessing, Source: rel, Path: src})

	res, compileErr := b.Compiler.Compile(ctx, src, d.OutputDir, func(pass, total int) {
		b.emit(Event{Kind: EventPass, Source: rel, Path: src, Pass: pass, Passes: total})
	})

	var passErr *compiler.PassError
	if compileErr != nil && !errors.As(compileErr, &passErr) {
		return fmt.Errorf("%s: %w", rel, compileErr)
	}

	// Runs whether or not the compile succeeded.
	swept := b.sweep.Sweep(d.OutputDir, base)
	entry.Swept = len(swept.Removed)
	entry.SweepFailures = len(swept.Failed)

	if passErr != nil {
		entry.Outcome = report.Failed
		entry.Passes = passErr.Pass
		entry.Diagnostic = report.Tail(diagnostic(passErr), b.tailLimit())
		b.batch.Record(entry)
		b.emit(Event{Kind: EventFailed, Source: rel, Path: src, Pass: passErr.Pass, Passes: passErr.Passes, Err: passErr})
		return nil
	}

	entry.Outcome = report.Compiled
	entry.Passes = res.Passes
	b.batch.Record(entry)
	b.emit(Event{Kind: EventCompiled, Source: rel, Path: src, Passes: res.Passes})
	return nil
}

// diagnostic is the compiler output, with the failure reason appended when
// the output alone would not explain it.
func diagnostic(pe *compiler.PassError) string {
	out := pe.Output
	if strings.TrimSpace(out) == "" {
		return pe.Error()
	}
	if errors.Is(pe, compiler.ErrTimeout) {
		return strings.TrimRight(out, "\n") + "\n" + pe.Error()
	}
	return out
}
