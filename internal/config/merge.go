package config

import "fmt"

// Merge combines two configs where overlay takes precedence over base:
//   - version: must agree if both declare it (non-zero); fatal error on mismatch
//   - scalar fields: overlay wins when set
//   - byproducts: a non-empty overlay list replaces the base list
//   - compiler_definitions: merge by name, same name in overlay replaces base
func Merge(base, overlay *Config) (*Config, error) {
	if base == nil {
		return overlay, nil
	}
	if overlay == nil {
		return base, nil
	}

	result := &Config{}

	if err := mergeVersion(base.Version, overlay.Version, &result.Version); err != nil {
		return nil, err
	}

	result.SourceRoot = pick(base.SourceRoot, overlay.SourceRoot)
	result.OutputRoot = pick(base.OutputRoot, overlay.OutputRoot)
	result.SourceExt = pick(base.SourceExt, overlay.SourceExt)
	result.Compiler = pick(base.Compiler, overlay.Compiler)

	result.Passes = base.Passes
	if overlay.Passes != 0 {
		result.Passes = overlay.Passes
	}
	result.Timeout = base.Timeout
	if overlay.Timeout != 0 {
		result.Timeout = overlay.Timeout
	}
	result.Incremental = base.Incremental
	if overlay.Incremental != nil {
		result.Incremental = overlay.Incremental
	}

	result.Byproducts = base.Byproducts
	if len(overlay.Byproducts) > 0 {
		result.Byproducts = overlay.Byproducts
	}

	result.CompilerDefinitions = mergeCompilerDefs(base.CompilerDefinitions, overlay.CompilerDefinitions)

	return result, nil
}

// MergeAll merges multiple configs in order (lowest precedence first).
func MergeAll(configs []*Config) (*Config, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no configs to merge")
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		var err error
		result, err = Merge(result, configs[i])
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func mergeVersion(base, overlay int, out *int) error {
	switch {
	case base == 0 && overlay == 0:
		*out = 0 // validation will catch this
	case base == 0:
		*out = overlay
	case overlay == 0:
		*out = base
	case base == overlay:
		*out = base
	default:
		return fmt.Errorf("config version mismatch: one layer declares version %d, another declares version %d, all config layers must agree on version", base, overlay)
	}
	return nil
}

func pick(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func mergeCompilerDefs(base, overlay []CompilerDefinition) []CompilerDefinition {
	if len(base) == 0 {
		return overlay
	}
	if len(overlay) == 0 {
		return base
	}

	overlayNames := make(map[string]bool, len(overlay))
	for _, cd := range overlay {
		overlayNames[cd.Name] = true
	}

	var result []CompilerDefinition
	for _, cd := range base {
		if !overlayNames[cd.Name] {
			result = append(result, cd)
		}
	}

	return append(result, overlay...)
}
