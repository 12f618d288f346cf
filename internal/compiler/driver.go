// Package compiler drives an external document compiler as a sequence of
// out-of-process passes and classifies its failures.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

var (
	commandContext = exec.CommandContext
	lookPath       = exec.LookPath
)

var (
	// ErrCompilerNotFound means the compiler binary could not be resolved or
	// started. No later file can succeed either, so callers abort the run.
	ErrCompilerNotFound = errors.New("compiler not found")

	// ErrTimeout marks a pass killed by the per-invocation timeout.
	ErrTimeout = errors.New("compiler pass timed out")
)

const (
	nonInteractiveFlag = "-interaction=nonstopmode"
	outputDirFlag      = "-output-directory"

	// pipeWaitDelay bounds how long a killed pass may keep its output pipe
	// open through a surviving child process.
	pipeWaitDelay = 2 * time.Second
)

// PassError is a per-file failure: one pass exited non-zero or timed out.
// Later passes for the same file were not run.
type PassError struct {
	Pass     int
	Passes   int
	ExitCode int // -1 when the process did not exit normally
	Output   string
	Err      error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %d of %d failed: %v", e.Pass, e.Passes, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// PassFunc is told about each pass just before it starts.
type PassFunc func(pass, total int)

// Result describes a successful compile.
type Result struct {
	Passes int
	Output string // combined output of every pass
}

// Option configures a Driver.
type Option func(*Driver)

// WithPasses overrides the profile's pass count when n > 0.
func WithPasses(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.passes = n
		}
	}
}

// WithTimeout bounds each pass. Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// Driver runs one compiler profile.
type Driver struct {
	binary   string
	args     []string
	finalExt string
	passes   int
	timeout  time.Duration
}

// NewDriver constructs a Driver for the given profile.
func NewDriver(p Profile, opts ...Option) *Driver {
	d := &Driver{
		binary:   p.Binary,
		args:     append([]string(nil), p.Args...),
		finalExt: p.FinalExt,
		passes:   p.Passes,
	}
	if d.finalExt == "" {
		d.finalExt = defaultFinalExt
	}
	if d.passes <= 0 {
		d.passes = defaultPasses
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Binary returns the compiler executable name or path.
func (d *Driver) Binary() string { return d.binary }

// FinalExt returns the extension of the artifact the compiler writes.
func (d *Driver) FinalExt() string { return d.finalExt }

// Passes returns the number of passes run per file.
func (d *Driver) Passes() int { return d.passes }

// Compile runs every pass against sourcePath, writing into outputDir. It stops
// at the first failing pass.
//
// A nil error means every pass exited zero, which is taken to mean the artifact
// now exists; the driver does not check. A *PassError is a per-file failure.
// An error wrapping ErrCompilerNotFound or the context's error is fatal.
func (d *Driver) Compile(ctx context.Context, sourcePath, outputDir string, onPass PassFunc) (*Result, error) {
	if sourcePath == "" {
		return nil, errors.New("source path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output directory required")
	}

	args := make([]string, 0, len(d.args)+4)
	args = append(args, nonInteractiveFlag)
	args = append(args, d.args...)
	args = append(args, outputDirFlag, outputDir, sourcePath)

	var combined strings.Builder
	for pass := 1; pass <= d.passes; pass++ {
		if onPass != nil {
			onPass(pass, d.passes)
		}

		out, err := d.runPass(ctx, args)
		combined.Write(out)
		if err == nil {
			continue
		}

		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCompilerNotFound, d.binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("compiling %s: %w", sourcePath, ctxErr)
		}

		passErr := &PassError{Pass: pass, Passes: d.passes, ExitCode: -1, Output: string(out), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			passErr.ExitCode = exitErr.ExitCode()
		}
		return nil, passErr
	}

	return &Result{Passes: d.passes, Output: combined.String()}, nil
}

func (d *Driver) runPass(ctx context.Context, args []string) ([]byte, error) {
	passCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	cmd := commandContext(passCtx, d.binary, args...) //nolint:gosec
	cmd.WaitDelay = pipeWaitDelay
	out, err := cmd.CombinedOutput()
	if err != nil && ctx.Err() == nil && errors.Is(passCtx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("%w after %s", ErrTimeout, d.timeout)
	}
	return out, err
}

// LookupBinary reports where binary resolves on PATH, or an error wrapping
// ErrCompilerNotFound.
func LookupBinary(binary string) (string, error) {
	if strings.TrimSpace(binary) == "" {
		return "", fmt.Errorf("%w: command not configured", ErrCompilerNotFound)
	}
	path, err := lookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: binary %q not found", ErrCompilerNotFound, binary)
	}
	return path, nil
}
