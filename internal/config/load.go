package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a single texbatch.yaml or texbatch.toml file.
// Relative roots are resolved against the directory containing the file.
func Load(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return cfg, nil
}

// HierarchicalResult is the merged configuration plus the layers it came from.
type HierarchicalResult struct {
	Config *Config
	Layers []ConfigLayerInfo
}

// LoadHierarchical discovers the system, user and project layers, merges the
// ones that exist and validates the result. The project layer must exist.
// With TEXBATCH_NO_INHERIT set only the project file is read.
func LoadHierarchical(opts DiscoverOptions) (*HierarchicalResult, error) {
	var layers []ConfigLayerInfo
	if EnvNoInherit() {
		layers = []ConfigLayerInfo{{Path: projectConfigPath(opts.ProjectPath), Level: LevelProject}}
	} else {
		layers = DiscoverPaths(opts)
	}

	var loaded []*Config
	for i := range layers {
		cfg, err := parseFile(layers[i].Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && layers[i].Level != LevelProject {
				continue
			}
			layers[i].Err = err
			return &HierarchicalResult{Layers: layers}, err
		}
		layers[i].Loaded = true
		loaded = append(loaded, cfg)
	}

	merged, err := MergeAll(loaded)
	if err != nil {
		return &HierarchicalResult{Layers: layers}, err
	}

	if errs := Validate(merged); len(errs) > 0 {
		return &HierarchicalResult{Layers: layers}, &ValidationError{Errors: errs}
	}

	return &HierarchicalResult{Config: merged, Layers: layers}, nil
}

// Marshal encodes cfg in the syntax implied by path's extension.
func Marshal(path string, cfg *Config) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	cfg.SourceRoot = resolveRoot(dir, cfg.SourceRoot)
	cfg.OutputRoot = resolveRoot(dir, cfg.OutputRoot)

	return &cfg, nil
}

func resolveRoot(base, root string) string {
	if root == "" || filepath.IsAbs(root) {
		return root
	}
	return filepath.Clean(filepath.Join(base, root))
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d, only version 1 is supported", cfg.Version))
	}

	if cfg.SourceRoot == "" {
		errs = append(errs, "'source_root' is required")
	}
	if cfg.OutputRoot == "" {
		errs = append(errs, "'output_root' is required")
	}
	if cfg.SourceRoot != "" && cfg.OutputRoot != "" && within(cfg.SourceRoot, cfg.OutputRoot) {
		errs = append(errs, fmt.Sprintf("'output_root' %s must not be inside 'source_root' %s", cfg.OutputRoot, cfg.SourceRoot))
	}

	if cfg.SourceExt != "" && !validExt(cfg.SourceExt) {
		errs = append(errs, fmt.Sprintf("invalid source_ext '%s', must start with '.' and contain no path separator", cfg.SourceExt))
	}

	if cfg.Passes < 0 {
		errs = append(errs, fmt.Sprintf("invalid passes %d, must be 0 (compiler default) or greater", cfg.Passes))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("invalid timeout %s, must not be negative", cfg.Timeout))
	}

	for i, ext := range cfg.Byproducts {
		if !validExt(ext) {
			errs = append(errs, fmt.Sprintf("byproducts[%d]: invalid extension '%s', must start with '.' and contain no path separator", i, ext))
		}
	}

	names := make(map[string]bool)
	for i, cd := range cfg.CompilerDefinitions {
		prefix := fmt.Sprintf("compiler_definition[%d]", i)
		if cd.Name != "" {
			prefix = fmt.Sprintf("compiler_definition '%s'", cd.Name)
		}

		if cd.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		} else if names[cd.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate compiler name '%s'", prefix, cd.Name))
		} else {
			names[cd.Name] = true
		}

		if cd.Binary == "" {
			errs = append(errs, fmt.Sprintf("%s: 'binary' is required, add 'binary: pdflatex' or an absolute path", prefix))
		}
		if cd.FinalExt != "" && !validExt(cd.FinalExt) {
			errs = append(errs, fmt.Sprintf("%s: invalid final_ext '%s'", prefix, cd.FinalExt))
		}
		if cd.Passes < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid passes %d", prefix, cd.Passes))
		}
	}

	return errs
}

func validExt(ext string) bool {
	return len(ext) > 1 && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, `/\`)
}

// within reports whether child is root itself or lies below it.
func within(root, child string) bool {
	root = filepath.Clean(root)
	child = filepath.Clean(child)
	if root == child {
		return true
	}
	return strings.HasPrefix(child, root+string(filepath.Separator))
}
