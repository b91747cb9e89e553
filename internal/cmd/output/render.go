// Package output renders sync reports, offer listings and account summaries.
// Terminals get a table; pipes get JSON unless a format is asked for.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Format names an output rendering.
type Format string

// Supported formats. Wide is a table with one row per stock and price record.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatWide  Format = "wide"
)

var formats = []Format{FormatTable, FormatJSON, FormatYAML, FormatWide}

// IsTable reports whether f renders as a table.
func (f Format) IsTable() bool {
	return f == FormatTable || f == FormatWide || f == ""
}

// ParseFormat validates a --format value. The empty string is accepted and
// left for Resolve to decide.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return f, nil
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(formats))
	for i, known := range formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("invalid format %q: must be one of: %s", s, strings.Join(names, ", "))
}

// Resolve picks the format for a report written to w. An explicit value
// wins; otherwise a terminal gets a table and anything else JSON.
func Resolve(explicit string, w io.Writer) (Format, error) {
	f, err := ParseFormat(explicit)
	if err != nil || f != "" {
		return f, err
	}
	if file, ok := w.(*os.File); ok && (isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		return FormatTable, nil
	}
	return FormatJSON, nil
}

// Print writes a report. Table formats render table; JSON and YAML
// serialize report itself.
func Print(w io.Writer, format Format, report any, table Table) error {
	switch {
	case format.IsTable():
		return table.Render(w)
	case format == FormatJSON:
		return writeJSON(w, report)
	case format == FormatYAML:
		return writeYAML(w, report)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func writeJSON(w io.Writer, report any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeYAML(w io.Writer, report any) error {
	out, err := yaml.MarshalWithOptions(report, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Align is a table column alignment.
type Align int

// Column alignments. AlignDefault leaves the renderer's choice.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Align) tw() tw.Align {
	switch a {
	case AlignLeft:
		return tw.AlignLeft
	case AlignCenter:
		return tw.AlignCenter
	case AlignRight:
		return tw.AlignRight
	default:
		return tw.Skip
	}
}

// Table is a report flattened into text cells.
type Table struct {
	Headers []string
	Rows    [][]string
	// Align holds one entry per column; counts and sizes are right-aligned
	Align []Align
}

// Render draws the table to w.
func (t Table) Render(w io.Writer) error {
	var cfg tablewriter.Config
	if len(t.Align) > 0 {
		perColumn := make([]tw.Align, len(t.Align))
		for i, a := range t.Align {
			perColumn[i] = a.tw()
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: perColumn}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: perColumn}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(t.Headers) > 0 {
		table.Header(cells(t.Headers)...)
	}
	for _, row := range t.Rows {
		if err := table.Append(cells(row)...); err != nil {
			return err
		}
	}
	return table.Render()
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
