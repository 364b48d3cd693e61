package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// Format names an output encoding.
type Format string

// Supported output formats.
const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatHTML     Format = "html"
)

// Formats returns all supported format names.
func Formats() []string {
	return []string{
		string(FormatTable),
		string(FormatMarkdown),
		string(FormatCSV),
		string(FormatJSON),
		string(FormatYAML),
		string(FormatHTML),
	}
}

// ParseFormat resolves a format name. Short aliases "md" and "yml" are
// accepted; the empty string means table.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table", "text":
		return FormatTable, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yml", "yaml":
		return FormatYAML, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: %s)", name, strings.Join(Formats(), ", "))
	}
}

// Write encodes result sets to w in the given format.
func Write(w io.Writer, sets []engine.ResultSet, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, sets)
	case FormatYAML:
		return writeYAML(w, sets)
	case FormatCSV:
		return writeCSV(w, RenderAll(sets))
	case FormatMarkdown:
		return writeMarkdown(w, RenderAll(sets))
	case FormatHTML:
		return writeHTML(w, RenderAll(sets))
	case FormatTable, "":
		return writeTable(w, RenderAll(sets))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
