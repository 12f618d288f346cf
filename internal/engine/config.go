package engine

import (
	"log/slog"
	"time"

	"github.com/bianoble/texbatch/internal/compiler"
	"github.com/bianoble/texbatch/internal/config"
)

// Overrides are per-run settings that beat the config file when non-zero.
type Overrides struct {
	Passes  int
	Timeout time.Duration
}

// FromConfig resolves the compiler profile named by cfg and returns an Engine
// driving it, along with the profile.
func FromConfig(cfg *config.Config, o Overrides, logger *slog.Logger) (*Engine, compiler.Profile, error) {
	profiles := compiler.NewProfiles(cfg.CompilerDefinitions)
	p, err := profiles.Resolve(cfg.EffectiveCompiler())
	if err != nil {
		return nil, compiler.Profile{}, err
	}

	passes := cfg.Passes
	if o.Passes > 0 {
		passes = o.Passes
	}
	timeout := cfg.Timeout.Std()
	if o.Timeout > 0 {
		timeout = o.Timeout
	}

	return &Engine{
		SourceRoot:   cfg.SourceRoot,
		OutputRoot:   cfg.OutputRoot,
		SourceExt:    cfg.EffectiveSourceExt(),
		Compiler:     compiler.NewDriver(p, compiler.WithPasses(passes), compiler.WithTimeout(timeout)),
		CompilerName: p.Name,
		Byproducts:   cfg.Byproducts,
		Logger:       logger,
	}, p, nil
}
