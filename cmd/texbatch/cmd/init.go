package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bianoble/texbatch/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default texbatch.yaml scaffold.
const initTemplate = `# texbatch configuration
version: 1

# Tree of LaTeX sources. Relative paths resolve against this file.
source_root: ./tex

# Mirrored tree that receives the PDFs. Must not be inside source_root.
output_root: ./pdf

# source_ext: .tex            # case-sensitive

# Built-in compilers: pdflatex, xelatex, lualatex (two passes each)
compiler: pdflatex

# passes: 0                   # 0 = compiler default
# incremental: true           # false recompiles everything on every build
# timeout: 5m                 # per pass, 0 = no limit

# Auxiliary files removed after each compile. Empty = built-in list:
# .aux .log .out .toc .synctex.gz .fls .fdb_latexmk .bbl .blg
# byproducts: [.aux, .log, .out, .toc, .nav, .snm]

# compiler_definitions:
#   - name: texlive-pdflatex
#     binary: /usr/local/texlive/2024/bin/x86_64-linux/pdflatex
#     args: ["-halt-on-error", "-file-line-error"]
#     final_ext: .pdf
#     passes: 2
`

// starterConfig is written when the target path is TOML.
func starterConfig() *config.Config {
	return &config.Config{
		Version:    1,
		SourceRoot: "./tex",
		OutputRoot: "./pdf",
		Compiler:   config.DefaultCompiler,
	}
}

func renderInitConfig(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		body, err := config.Marshal(path, starterConfig())
		if err != nil {
			return nil, err
		}
		return append([]byte("# texbatch configuration\n"), body...), nil
	}
	return []byte(initTemplate), nil
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter texbatch.yaml configuration",
	Long: `Creates a texbatch.yaml file in the current directory with a commented
template. Pass --config with a .toml path to get a TOML file instead.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		data, err := renderInitConfig(outPath)
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Point source_root and output_root at your trees")
		info("  2. Run 'texbatch status' to see what is stale")
		info("  3. Run 'texbatch build' to compile")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
