package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleReport() *Report {
	r := New("/src", "/out", "pdflatex", 2)
	r.Record(Entry{Source: "a.tex", Artifact: "/out/a.pdf", Outcome: Compiled, Passes: 2, Swept: 2})
	r.Record(Entry{Source: "sub/bad.tex", Outcome: Failed, Passes: 1, Diagnostic: "! Undefined control sequence.\n"})
	r.Record(Entry{Source: "old.tex", Outcome: Skipped})
	r.Finish(nil)
	return r
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.yaml")
	want := sampleReport()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not survive a successful save")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != want.RunID || got.Compiler != "pdflatex" || got.Passes != 2 {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Compiled != 1 || got.Failed != 1 || got.Skipped != 1 {
		t.Errorf("counts mismatch: %+v", got.Batch)
	}
	if len(got.Failures()) != 1 || !strings.Contains(got.Failures()[0].Diagnostic, "Undefined") {
		t.Errorf("failure diagnostic lost: %+v", got.Failures())
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestSavedReportIsFlat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := Save(path, sampleReport()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, key := range []string{"run_id:", "compiled: 1", "entries:", "outcome: failed"} {
		if !strings.Contains(text, key) {
			t.Errorf("report missing %q:\n%s", key, text)
		}
	}
	if strings.Contains(text, "batch:") {
		t.Error("batch fields should be inlined")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing report") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading report") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `version: 99
run_id: abc
compiled: 3
entries:
  - source: a.tex
    outcome: compiled
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"unsupported version", "'compiled' is 3 but 1 entries"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got: %v", want, err)
		}
	}
}

func TestValidateEntries(t *testing.T) {
	r := &Report{Version: Version, RunID: "x"}
	r.Entries = []Entry{
		{Outcome: Compiled},
		{Source: "b.tex", Outcome: "exploded"},
		{Source: "c.tex"},
	}
	r.Compiled = 1

	errs := strings.Join(Validate(r), "\n")
	for _, want := range []string{"entry[0]: 'source' is required", "entry 'b.tex': unknown outcome", "entry 'c.tex': 'outcome' is required"} {
		if !strings.Contains(errs, want) {
			t.Errorf("missing %q in:\n%s", want, errs)
		}
	}
}

func TestValidateSampleIsClean(t *testing.T) {
	if errs := Validate(sampleReport()); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestSaveToReadOnlyDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("test unreliable as root")
	}
	dir := t.TempDir()
	readOnly := filepath.Join(dir, "readonly")
	if err := os.MkdirAll(readOnly, 0555); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Chmod(readOnly, 0755)
	}()

	if err := Save(filepath.Join(readOnly, "run.yaml"), sampleReport()); err == nil {
		t.Fatal("expected error writing to read-only directory")
	}
}

func TestValidationErrorContainsAllErrors(t *testing.T) {
	verr := &ValidationError{Errors: []string{"a", "b", "c"}}
	msg := verr.Error()
	if !strings.Contains(msg, "report validation failed") {
		t.Errorf("missing header: %s", msg)
	}
	for _, e := range []string{"a", "b", "c"} {
		if !strings.Contains(msg, e) {
			t.Errorf("missing error %q: %s", e, msg)
		}
	}
}
