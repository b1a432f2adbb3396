package output

import (
	"fmt"
	"strings"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/stats"
	"github.com/devpulse/devpulse/internal/insight"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// Document bundles everything a formatter may render: the computed
// report and, when requested, the AI insight section.
type Document struct {
	Report   *stats.Report           `json:"report"`
	Insights *insight.AnalysisReport `json:"insights,omitempty"`
}

// Formatter renders a report document.
type Formatter interface {
	FormatReport(doc *Document) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	case string(FormatCSV):
		return FormatCSV, nil
	case string(FormatHTML):
		return FormatHTML, nil
	case string(FormatText):
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	case FormatHTML:
		return &HTMLFormatter{}
	case FormatText:
		return &TextFormatter{}
	default:
		return &TableFormatter{}
	}
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for a format.
func Extension(format Format) string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// ExportFilename builds a deterministic export file name, e.g.
// devpulse_report_acme-widgets_2026-07-01_2026-07-31.csv.
func ExportFilename(kind string, repo core.Repo, period core.Period, format Format) string {
	slug := repo.Owner + "-" + repo.Name
	return fmt.Sprintf("devpulse_%s_%s_%s_%s.%s",
		kind,
		slug,
		period.Start.UTC().Format("2006-01-02"),
		period.End.UTC().Format("2006-01-02"),
		Extension(format),
	)
}
