package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a run report.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}

	if errs := Validate(&r); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &r, nil
}

// Save writes a report atomically using a temp file and rename.
func Save(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp report %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp report to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("report validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Report for internal consistency.
// Returns a list of validation error messages (empty if valid).
func Validate(r *Report) []string {
	var errs []string

	if r.Version != Version {
		errs = append(errs, fmt.Sprintf("unsupported version %d, only version %d is supported", r.Version, Version))
	}
	if r.RunID == "" {
		errs = append(errs, "'run_id' is required")
	}

	counts := make(map[Outcome]int)
	for i, e := range r.Entries {
		prefix := fmt.Sprintf("entry[%d]", i)
		if e.Source != "" {
			prefix = fmt.Sprintf("entry '%s'", e.Source)
		}

		if e.Source == "" {
			errs = append(errs, fmt.Sprintf("%s: 'source' is required", prefix))
		}
		switch e.Outcome {
		case Compiled, Skipped, Failed, Planned:
			counts[e.Outcome]++
		case "":
			errs = append(errs, fmt.Sprintf("%s: 'outcome' is required", prefix))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown outcome '%s'", prefix, e.Outcome))
		}
	}

	check := func(name string, got int, o Outcome) {
		if got != counts[o] {
			errs = append(errs, fmt.Sprintf("'%s' is %d but %d entries are %s", name, got, counts[o], o))
		}
	}
	check("compiled", r.Compiled, Compiled)
	check("skipped", r.Skipped, Skipped)
	check("failed", r.Failed, Failed)
	check("planned", r.Planned, Planned)

	return errs
}
