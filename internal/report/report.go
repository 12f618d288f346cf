// Package report accumulates per-file build outcomes and renders or persists
// the run summary.
package report

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Version is the report file format version.
const Version = 1

// DefaultTailLimit bounds the diagnostic text kept per failure.
const DefaultTailLimit = 1000

// Outcome is what happened to one source file.
type Outcome string

const (
	Compiled Outcome = "compiled"
	Skipped  Outcome = "skipped" // artifact up to date
	Failed   Outcome = "failed"
	Planned  Outcome = "planned" // stale, but not compiled because of a dry run
)

// Entry is one source file's record.
type Entry struct {
	Source        string  `yaml:"source"` // relative to the source root
	Artifact      string  `yaml:"artifact,omitempty"`
	Outcome       Outcome `yaml:"outcome"`
	Passes        int     `yaml:"passes,omitempty"`
	Diagnostic    string  `yaml:"diagnostic,omitempty"`
	Swept         int     `yaml:"swept,omitempty"`
	SweepFailures int     `yaml:"sweep_failures,omitempty"`
}

// Batch is the tally for one run. Only the build loop mutates it.
type Batch struct {
	Compiled int     `yaml:"compiled"`
	Skipped  int     `yaml:"skipped"`
	Failed   int     `yaml:"failed"`
	Planned  int     `yaml:"planned,omitempty"`
	Entries  []Entry `yaml:"entries,omitempty"`
}

// Record adds an entry and bumps the matching counter.
func (b *Batch) Record(e Entry) {
	switch e.Outcome {
	case Compiled:
		b.Compiled++
	case Skipped:
		b.Skipped++
	case Failed:
		b.Failed++
	case Planned:
		b.Planned++
	}
	b.Entries = append(b.Entries, e)
}

// Failures returns the failed entries in walk order.
func (b *Batch) Failures() []Entry {
	var out []Entry
	for _, e := range b.Entries {
		if e.Outcome == Failed {
			out = append(out, e)
		}
	}
	return out
}

// Total is the number of candidate files seen.
func (b *Batch) Total() int {
	return len(b.Entries)
}

// OK reports whether no file failed.
func (b *Batch) OK() bool {
	return b.Failed == 0
}

// Report is a finished (or aborted) run as written by --report.
type Report struct {
	Version    int       `yaml:"version"`
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	SourceRoot string    `yaml:"source_root"`
	OutputRoot string    `yaml:"output_root"`
	Compiler   string    `yaml:"compiler"`
	Passes     int       `yaml:"passes"`
	DryRun     bool      `yaml:"dry_run,omitempty"`
	Aborted    string    `yaml:"aborted,omitempty"` // fatal error that ended the run early

	Batch `yaml:",inline"`
}

// New starts a report with a fresh run ID.
func New(sourceRoot, outputRoot, compiler string, passes int) *Report {
	return &Report{
		Version:    Version,
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		Compiler:   compiler,
		Passes:     passes,
	}
}

// Finish stamps the end time and, when err is non-nil, the abort reason.
func (r *Report) Finish(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Aborted = err.Error()
	}
}

// Elapsed is the wall time of the run, zero until Finish is called.
func (r *Report) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Tail returns at most the last limit bytes of s, never splitting a UTF-8
// sequence. A limit <= 0 returns s unchanged.
func Tail(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	i := len(s) - limit
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}
