package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/engine"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/spf13/cobra"
)

var (
	buildForce   bool
	buildDryRun  bool
	buildPasses  int
	buildTimeout time.Duration
	buildReport  string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile every stale source into the output tree",
	Long: `Walks the source root, creates the mirrored directory for every source
directory, and compiles each source whose artifact is missing or older than
the source. Auxiliary files are swept after every attempted compile.

A file that fails to compile is reported and the walk continues. A missing
compiler, an unwritable output root or a held run lock stops the run.
The exit status is non-zero if anything failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := hr.Config

		eng, p, err := newEngine(cfg, engine.Overrides{Passes: buildPasses, Timeout: buildTimeout})
		if err != nil {
			return err
		}
		eng.Progress = printEvent

		if buildDryRun {
			info("Dry run: nothing will be compiled or deleted.")
		}

		rep, runErr := eng.Build(cmd.Context(), engine.BuildOptions{
			Force:  buildForce || !cfg.IsIncremental(),
			DryRun: buildDryRun,
		})

		if buildReport != "" && rep != nil {
			if err := report.Save(buildReport, rep); err != nil {
				errorf("%v", err)
			} else {
				detail("report %s written to %s", rep.RunID, buildReport)
			}
		}

		if runErr != nil {
			if errors.Is(runErr, compiler.ErrCompilerNotFound) {
				return fmt.Errorf("%w\ninstall a LaTeX distribution (TeX Live, MiKTeX) or point compiler_definitions at %q", runErr, p.Binary)
			}
			return runErr
		}

		if quiet {
			for _, f := range rep.Failures() {
				errorf("%s failed", f.Source)
			}
		} else {
			fmt.Println()
			if err := report.RenderSummary(os.Stdout, &rep.Batch, report.SummaryOptions{Color: colorEnabled()}); err != nil {
				return err
			}
		}

		if !rep.OK() {
			return fmt.Errorf("%d file(s) failed to compile", rep.Failed)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "recompile every source regardless of timestamps")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "show what would be compiled without touching the output tree")
	buildCmd.Flags().IntVar(&buildPasses, "passes", 0, "compiler passes per file (0 = profile default)")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 0, "per-pass timeout (0 = config value)")
	buildCmd.Flags().StringVar(&buildReport, "report", "", "write a YAML run report to this path")
	rootCmd.AddCommand(buildCmd)
}
