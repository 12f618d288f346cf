package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ConfigFileName is the default project config file name.
const ConfigFileName = "texbatch.yaml"

// configFileNames are the file names looked for in a config directory, in
// order of preference. The first one that exists wins.
var configFileNames = []string{ConfigFileName, "texbatch.toml"}

const configDirName = "texbatch"

// envNoInherit disables the system and user layers when set to "1" or "true".
const envNoInherit = "TEXBATCH_NO_INHERIT"

// ConfigLevel represents the precedence level of a configuration file.
type ConfigLevel string

const (
	LevelSystem  ConfigLevel = "system"
	LevelUser    ConfigLevel = "user"
	LevelProject ConfigLevel = "project"
)

// ConfigLayerInfo describes a discovered config file and its load status.
type ConfigLayerInfo struct {
	Err    error // non-nil if the file exists but failed to load
	Path   string
	Level  ConfigLevel
	Loaded bool
}

// DiscoverOptions controls how config paths are discovered.
type DiscoverOptions struct {
	// ProjectPath is the project-level config path (required). When it is
	// named texbatch.yaml and does not exist, a texbatch.toml next to it is
	// used instead.
	ProjectPath string

	// SystemConfigPath overrides the default system config path.
	// Empty means search the OS default directory. Set to a nonexistent
	// path to skip.
	SystemConfigPath string

	// UserConfigPath overrides the default user config path.
	// Empty means search the user config directory. Set to a nonexistent
	// path to skip.
	UserConfigPath string
}

// DiscoverPaths returns the ordered list of config file paths to check,
// from lowest precedence (system) to highest (project).
// Paths are deduplicated by resolved absolute path.
func DiscoverPaths(opts DiscoverOptions) []ConfigLayerInfo {
	var layers []ConfigLayerInfo
	seen := make(map[string]bool)

	add := func(level ConfigLevel, path string) {
		if path == "" {
			return
		}
		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}
		if seen[key] {
			return
		}
		seen[key] = true
		layers = append(layers, ConfigLayerInfo{Path: path, Level: level})
	}

	add(LevelSystem, firstNonEmpty(opts.SystemConfigPath, defaultSystemConfigPath()))
	add(LevelUser, firstNonEmpty(opts.UserConfigPath, defaultUserConfigPath()))
	add(LevelProject, projectConfigPath(opts.ProjectPath))

	return layers
}

// findConfigFile returns the preferred config file in dir. If none exists
// the YAML name is returned so callers can report it as not found.
func findConfigFile(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range configFileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return filepath.Join(dir, ConfigFileName)
}

// projectConfigPath falls back from a missing default-named project file to
// its TOML sibling. Any other path is taken as given.
func projectConfigPath(path string) string {
	if path == "" || filepath.Base(path) != ConfigFileName {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return findConfigFile(filepath.Dir(path))
}

// systemConfigDir is /etc/texbatch, or %ProgramData%\texbatch on Windows.
func systemConfigDir() string {
	if runtime.GOOS == "windows" {
		pd := os.Getenv("ProgramData")
		if pd == "" {
			pd = `C:\ProgramData`
		}
		return filepath.Join(pd, configDirName)
	}
	return filepath.Join("/etc", configDirName)
}

// userConfigDir is texbatch under os.UserConfigDir, or "" when the OS has no
// notion of one.
func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, configDirName)
}

func defaultSystemConfigPath() string {
	return findConfigFile(systemConfigDir())
}

func defaultUserConfigPath() string {
	return findConfigFile(userConfigDir())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// EnvNoInherit returns true if TEXBATCH_NO_INHERIT is set to "1" or "true".
func EnvNoInherit() bool {
	return envBoolTrue(envNoInherit)
}

func envBoolTrue(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true"
}
