// Package output renders command results as YAML, JSON or a table.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/kerbi/internal/errkind"
)

// Format selects how results are printed.
type Format string

const (
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// AllFormats lists the accepted format names.
var AllFormats = []string{string(FormatYAML), string(FormatJSON), string(FormatTable)}

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errkind.New(errkind.Validation, "unknown output format")

// ParseFormat validates a format name. An empty name means yaml.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatYAML, nil
	}
	f := Format(strings.ToLower(s))
	if !slices.Contains(AllFormats, string(f)) {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, s, strings.Join(AllFormats, ", "))
	}
	return f, nil
}

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// View is a result that can be printed in every format.
type View interface {
	// Data is what YAML and JSON serialize.
	Data() any
	// Table is what the table format renders.
	Table() Table
}

// Print writes v in format f. Plain values that are not Views print as
// YAML when a table is requested.
func Print(w io.Writer, f Format, v any) error {
	data := v
	if view, ok := v.(View); ok {
		data = view.Data()
		if f == FormatTable {
			return writeTable(w, view.Table())
		}
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, data)
	default:
		return writeYAML(w, data)
	}
}

// Manifests writes fragments as a YAML stream or a JSON array.
func Manifests(w io.Writer, f Format, docs []map[string]any) error {
	if f == FormatJSON {
		if docs == nil {
			docs = []map[string]any{}
		}
		return writeJSON(w, docs)
	}

	for i, doc := range docs {
		if i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		if err := writeYAML(w, doc); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeTable(w io.Writer, t Table) error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
