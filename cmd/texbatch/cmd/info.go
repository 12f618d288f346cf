package cmd

import (
	"fmt"
	"strings"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/sweep"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration and compiler information",
	Long: `Displays the texbatch version, the config files that were considered, the
resolved source and output roots, the selected compiler profile and whether
its binary can be found on PATH.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hr, loadErr := loadConfig() // ok if config doesn't exist

		fmt.Printf("texbatch %s\n", version)

		if hr != nil && len(hr.Layers) > 0 {
			fmt.Println("  config chain:")
			for _, layer := range hr.Layers {
				status := "not found"
				switch {
				case layer.Err != nil:
					status = "error"
				case layer.Loaded:
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", string(layer.Level)+":", layer.Path, status)
			}
		} else {
			fmt.Printf("  config:        %s\n", configPath)
		}

		if loadErr != nil {
			fmt.Printf("  config error:  %v\n", loadErr)
			printProfiles(compiler.NewProfiles(nil), "")
			return nil
		}
		cfg := hr.Config

		fmt.Printf("  source root:   %s\n", cfg.SourceRoot)
		fmt.Printf("  output root:   %s\n", cfg.OutputRoot)
		fmt.Printf("  source ext:    %s\n", cfg.EffectiveSourceExt())
		fmt.Printf("  incremental:   %t\n", cfg.IsIncremental())

		byproducts := cfg.Byproducts
		if len(byproducts) == 0 {
			byproducts = sweep.DefaultByproducts
		}
		fmt.Printf("  byproducts:    %s\n", strings.Join(byproducts, " "))

		profiles := compiler.NewProfiles(cfg.CompilerDefinitions)
		p, err := profiles.Resolve(cfg.EffectiveCompiler())
		if err != nil {
			fmt.Printf("  compiler:      %v\n", err)
		} else {
			drv := compiler.NewDriver(p, compiler.WithPasses(cfg.Passes), compiler.WithTimeout(cfg.Timeout.Std()))
			fmt.Printf("  compiler:      %s (%d pass(es), %s)\n", p.Name, drv.Passes(), drv.FinalExt())
			if path, err := compiler.LookupBinary(p.Binary); err != nil {
				fmt.Printf("  binary:        %s (not found on PATH)\n", p.Binary)
			} else {
				fmt.Printf("  binary:        %s\n", path)
			}
			if cfg.Timeout > 0 {
				fmt.Printf("  timeout:       %s per pass\n", cfg.Timeout)
			}
		}

		printProfiles(profiles, cfg.EffectiveCompiler())
		return nil
	},
}

func printProfiles(profiles *compiler.Profiles, selected string) {
	fmt.Println("\nCompiler profiles:")
	for _, name := range profiles.Known() {
		p, err := profiles.Resolve(name)
		if err != nil {
			continue
		}
		marker := " "
		if name == selected {
			marker = "*"
		}
		custom := ""
		if profiles.IsCustom(name) {
			custom = " (custom)"
		}
		fmt.Printf(" %s %-15s → %s%s\n", marker, name, p.Binary, custom)
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
