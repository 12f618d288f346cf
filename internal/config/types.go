package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSourceExt is the extension of files selected for compilation when
// source_ext is not set.
const DefaultSourceExt = ".tex"

// DefaultCompiler is the compiler profile used when compiler is not set.
const DefaultCompiler = "pdflatex"

// Config represents the texbatch.yaml (or texbatch.toml) configuration file.
type Config struct {
	Version             int                  `yaml:"version" toml:"version"`
	SourceRoot          string               `yaml:"source_root" toml:"source_root"`
	OutputRoot          string               `yaml:"output_root" toml:"output_root"`
	SourceExt           string               `yaml:"source_ext,omitempty" toml:"source_ext,omitempty"`
	Compiler            string               `yaml:"compiler,omitempty" toml:"compiler,omitempty"`
	Passes              int                  `yaml:"passes,omitempty" toml:"passes,omitempty"`
	Incremental         *bool                `yaml:"incremental,omitempty" toml:"incremental,omitempty"`
	Timeout             Duration             `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Byproducts          []string             `yaml:"byproducts,omitempty" toml:"byproducts,omitempty"`
	CompilerDefinitions []CompilerDefinition `yaml:"compiler_definitions,omitempty" toml:"compiler_definitions,omitempty"`
}

// CompilerDefinition defines a custom compiler profile or overrides a built-in.
type CompilerDefinition struct {
	Name     string   `yaml:"name" toml:"name"`
	Binary   string   `yaml:"binary" toml:"binary"`
	Args     []string `yaml:"args,omitempty" toml:"args,omitempty"`
	FinalExt string   `yaml:"final_ext,omitempty" toml:"final_ext,omitempty"`
	Passes   int      `yaml:"passes,omitempty" toml:"passes,omitempty"`
}

// EffectiveSourceExt returns the configured source extension or the default.
func (c *Config) EffectiveSourceExt() string {
	if c.SourceExt == "" {
		return DefaultSourceExt
	}
	return c.SourceExt
}

// EffectiveCompiler returns the configured compiler profile name or the default.
func (c *Config) EffectiveCompiler() string {
	if c.Compiler == "" {
		return DefaultCompiler
	}
	return c.Compiler
}

// IsIncremental reports whether up-to-date artifacts should be skipped.
// Incremental mode is on unless explicitly disabled.
func (c *Config) IsIncremental() bool {
	return c.Incremental == nil || *c.Incremental
}

// Duration is a time.Duration that reads and writes as a Go duration string
// ("90s", "2m") in both YAML and TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML emits the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a duration string", value.Line)
	}
	return d.UnmarshalText([]byte(value.Value))
}
