package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/config"
	"github.com/bianoble/texbatch/internal/engine"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/mattn/go-isatty"
)

// loadConfig reads the system, user and project layers and validates the
// merged result.
func loadConfig() (*config.HierarchicalResult, error) {
	hr, err := config.LoadHierarchical(config.DiscoverOptions{ProjectPath: configPath})
	if err != nil {
		return hr, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return hr, nil
}

// newEngine wires the compiler profile, driver and logger for cfg.
func newEngine(cfg *config.Config, o engine.Overrides) (*engine.Engine, compiler.Profile, error) {
	return engine.FromConfig(cfg, o, newLogger())
}

// newLogger returns the engine's warning channel on stderr.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// colorEnabled reports whether stdout should get ANSI colour.
func colorEnabled() bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// label colours s like outcome o when colour is on.
func label(o report.Outcome, s string) string {
	if colorEnabled() {
		return report.Colorize(o, s)
	}
	return s
}

// printEvent is the running commentary of a build.
func printEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventDirCreated:
		detail("created directory %s", ev.Path)
	case engine.EventProcessing:
		info("Processing %s...", ev.Source)
	case engine.EventPass:
		info("  pass %d of %d", ev.Pass, ev.Passes)
	case engine.EventCompiled:
		info("  -> %s", label(report.Compiled, "compiled"))
	case engine.EventSkipped:
		info("Skipping %s (up to date)", ev.Source)
	case engine.EventFailed:
		if ev.Pass == 0 {
			info("%s %s: %v", label(report.Failed, "error"), ev.Source, ev.Err)
			return
		}
		info("  -> %s: %v", label(report.Failed, "error"), ev.Err)
	case engine.EventPlanned:
		info("would compile %s", ev.Source)
	}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
