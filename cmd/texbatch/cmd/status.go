package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/bianoble/texbatch/internal/engine"
	"github.com/bianoble/texbatch/internal/report"
	"github.com/bianoble/texbatch/internal/staleness"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which sources are stale",
	Long: `Lists every source file with its artifact and whether a build would
recompile it. Nothing is created, compiled or deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := hr.Config

		eng, _, err := newEngine(cfg, engine.Overrides{})
		if err != nil {
			return err
		}

		statuses, err := eng.Status(cmd.Context())
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			info("No %s files under %s.", cfg.EffectiveSourceExt(), cfg.SourceRoot)
			return nil
		}

		var rows [][]string
		stale := 0
		for _, s := range statuses {
			state := s.State.String()
			switch {
			case s.Err != nil:
				state = label(report.Failed, "error: "+s.Err.Error())
			case s.State == staleness.Stale || !cfg.IsIncremental():
				stale++
				state = label(report.Planned, staleness.Stale.String())
			}
			artifact, err := filepath.Rel(cfg.OutputRoot, s.Artifact)
			if err != nil {
				artifact = s.Artifact
			}
			rows = append(rows, []string{s.Source, filepath.ToSlash(artifact), state})
		}

		if !quiet {
			fmt.Println(report.Table([]string{"Source", "Artifact", "State"}, rows, nil))
		}
		info("%d of %d source(s) stale.", stale, len(statuses))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
