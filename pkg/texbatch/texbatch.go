// Package texbatch is the Go library API for texbatch.
//
// texbatch mirrors a tree of LaTeX sources into an output tree, compiles only
// the stale documents and sweeps compiler byproducts.
//
// # Basic Usage
//
//	client, err := texbatch.New(texbatch.Options{
//	    ConfigPath: "texbatch.yaml",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rep, err := client.Build(ctx, texbatch.BuildOptions{})
//	if errors.Is(err, texbatch.ErrCompilerNotFound) {
//	    // nothing could be compiled
//	}
//	for _, f := range rep.Failures() {
//	    fmt.Println(f.Source, f.Diagnostic)
//	}
package texbatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/config"
	"github.com/bianoble/texbatch/internal/engine"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/bianoble/texbatch/internal/runlock"
)

type (
	// Config is the parsed texbatch.yaml.
	Config = config.Config
	// CompilerDefinition adds or overrides a compiler profile.
	CompilerDefinition = config.CompilerDefinition
	// Report is the outcome of a build.
	Report = report.Report
	// Entry is one source file in a Report.
	Entry = report.Entry
	// Outcome is compiled, skipped, failed or planned.
	Outcome = report.Outcome
	// FileStatus is one source file as seen by Status.
	FileStatus = engine.FileStatus
	// CleanResult holds the outcome of Clean.
	CleanResult = engine.CleanResult
	// Event is a progress notification from Build.
	Event = engine.Event
)

// Outcomes.
const (
	Compiled = report.Compiled
	Skipped  = report.Skipped
	Failed   = report.Failed
	Planned  = report.Planned
)

var (
	// ErrCompilerNotFound aborts a build when the compiler cannot be started.
	ErrCompilerNotFound = compiler.ErrCompilerNotFound
	// ErrTimeout marks a pass killed by the per-pass timeout.
	ErrTimeout = compiler.ErrTimeout
	// ErrLocked means another run holds the output root.
	ErrLocked = runlock.ErrLocked
)

// BuildOptions configures a build.
type BuildOptions struct {
	Force  bool
	DryRun bool
}

// CleanOptions configures a clean.
type CleanOptions struct {
	DryRun bool
}

// Builder compiles stale sources.
type Builder interface {
	Build(ctx context.Context, opts BuildOptions) (*Report, error)
}

// StatusReader reports staleness without side effects.
type StatusReader interface {
	Status(ctx context.Context) ([]FileStatus, error)
}

// Cleaner removes compiler byproducts.
type Cleaner interface {
	Clean(ctx context.Context, opts CleanOptions) (*CleanResult, error)
}

// Options configures a texbatch client.
type Options struct {
	// ConfigPath is the path to the project config file. Default: "texbatch.yaml".
	ConfigPath string

	// NoInherit skips the system and user config layers.
	NoInherit bool

	// Config, when set, is used instead of reading ConfigPath. Relative roots
	// are resolved against the working directory.
	Config *Config

	// Passes and Timeout override the config when non-zero.
	Passes  int
	Timeout time.Duration

	// Logger receives sweep warnings. Nil discards them.
	Logger *slog.Logger

	// Progress receives build events in walk order.
	Progress func(Event)
}

// Client is the main entry point for the texbatch library.
// It implements Builder, StatusReader, and Cleaner.
type Client struct {
	cfg     *Config
	profile compiler.Profile
	engine  *engine.Engine
}

var (
	_ Builder      = (*Client)(nil)
	_ StatusReader = (*Client)(nil)
	_ Cleaner      = (*Client)(nil)
)

// New creates a texbatch client.
func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		path := opts.ConfigPath
		if path == "" {
			path = config.ConfigFileName
		}
		loaded, err := loadConfig(path, opts.NoInherit)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}

	eng, p, err := engine.FromConfig(cfg, engine.Overrides{Passes: opts.Passes, Timeout: opts.Timeout}, opts.Logger)
	if err != nil {
		return nil, err
	}
	if opts.Progress != nil {
		eng.Progress = engine.ProgressFunc(opts.Progress)
	}

	return &Client{cfg: cfg, profile: p, engine: eng}, nil
}

func loadConfig(path string, noInherit bool) (*Config, error) {
	if noInherit {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}
	hr, err := config.LoadHierarchical(config.DiscoverOptions{ProjectPath: path})
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return hr.Config, nil
}

// Config returns the effective configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

// Compiler returns the name and binary of the selected compiler profile.
func (c *Client) Compiler() (name, binary string) {
	return c.profile.Name, c.profile.Binary
}

// Build compiles every stale source. A non-nil error is fatal; per-file
// failures are in the report. The report is returned in both cases.
func (c *Client) Build(ctx context.Context, opts BuildOptions) (*Report, error) {
	return c.engine.Build(ctx, engine.BuildOptions{
		Force:  opts.Force || !c.cfg.IsIncremental(),
		DryRun: opts.DryRun,
	})
}

// Status reports the staleness of every source.
func (c *Client) Status(ctx context.Context) ([]FileStatus, error) {
	return c.engine.Status(ctx)
}

// Clean removes compiler byproducts from the output tree.
func (c *Client) Clean(ctx context.Context, opts CleanOptions) (*CleanResult, error) {
	return c.engine.Clean(ctx, opts.DryRun)
}

// SaveReport writes rep as YAML to path.
func SaveReport(path string, rep *Report) error {
	return report.Save(path, rep)
}

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (*Report, error) {
	return report.Load(path)
}
