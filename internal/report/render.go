package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Align is a column alignment for Table.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Table renders rows with a rounded border. Short rows are padded.
func Table(headers []string, rows [][]string, aligns []Align) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// SummaryOptions controls RenderSummary.
type SummaryOptions struct {
	// TailLimit bounds each printed diagnostic; zero means DefaultTailLimit.
	TailLimit int
	// Color wraps outcome labels in ANSI colour.
	Color bool
}

const (
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// Colorize wraps an outcome label in its colour.
func Colorize(o Outcome, s string) string {
	switch o {
	case Compiled:
		return ansiGreen + s + ansiReset
	case Failed:
		return ansiRed + s + ansiReset
	case Planned:
		return ansiYellow + s + ansiReset
	}
	return s
}

// RenderSummary writes the tally table followed by the diagnostic tail of
// every failure.
func RenderSummary(w io.Writer, b *Batch, opts SummaryOptions) error {
	limit := opts.TailLimit
	if limit <= 0 {
		limit = DefaultTailLimit
	}
	label := func(o Outcome) string {
		if opts.Color {
			return Colorize(o, string(o))
		}
		return string(o)
	}

	rows := [][]string{
		{label(Compiled), strconv.Itoa(b.Compiled)},
		{label(Skipped), strconv.Itoa(b.Skipped)},
		{label(Failed), strconv.Itoa(b.Failed)},
	}
	if b.Planned > 0 {
		rows = append(rows, []string{label(Planned), strconv.Itoa(b.Planned)})
	}

	if _, err := fmt.Fprintln(w, Table([]string{"Outcome", "Files"}, rows, []Align{AlignLeft, AlignRight})); err != nil {
		return err
	}

	for _, f := range b.Failures() {
		diag := strings.TrimRight(Tail(f.Diagnostic, limit), "\n")
		if diag == "" {
			diag = "(no output captured)"
		}
		if _, err := fmt.Fprintf(w, "\n%s %s\n%s\n", label(Failed), f.Source, diag); err != nil {
			return err
		}
	}
	return nil
}
