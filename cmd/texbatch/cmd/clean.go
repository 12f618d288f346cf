package cmd

import (
	"github.com/bianoble/texbatch/internal/engine"
	"github.com/spf13/cobra"
)

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove compiler byproducts from the output tree",
	Long: `Sweeps the auxiliary files (.aux, .log, .toc, ...) of every source from its
mirrored output directory. Artifacts and directories are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hr, err := loadConfig()
		if err != nil {
			return err
		}

		eng, _, err := newEngine(hr.Config, engine.Overrides{})
		if err != nil {
			return err
		}

		res, err := eng.Clean(cmd.Context(), cleanDryRun)
		if err != nil {
			return err
		}

		if cleanDryRun {
			info("Dry run: no files removed.")
			for _, p := range res.Pending {
				info("  would remove  %s", p)
			}
			info("%d file(s) would be removed.", len(res.Pending))
			return nil
		}

		for _, p := range res.Removed {
			detail("removed  %s", p)
		}
		info("Clean complete: %d removed, %d could not be removed.", len(res.Removed), len(res.Failed))
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "list byproducts without removing them")
	rootCmd.AddCommand(cleanCmd)
}
