package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// CSVFormatter renders a report for spreadsheet import. When the report
// carries a velocity series the rows are the time buckets; otherwise
// they are metric name/value pairs.
type CSVFormatter struct{}

// FormatReport renders the document as CSV.
func (f *CSVFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	metrics := doc.Report.Metrics

	t := table.NewWriter()
	if len(metrics.Velocity) > 0 {
		t.AppendHeader(table.Row{"bucket", "commits", "additions", "deletions", "prs_created", "issues_closed"})
		for _, point := range metrics.Velocity {
			t.AppendRow(table.Row{
				point.Label,
				point.Commits,
				point.Additions,
				point.Deletions,
				point.PRsCreated,
				point.IssuesClosed,
			})
		}
		return t.RenderCSV(), nil
	}

	t.AppendHeader(table.Row{"metric", "value"})
	for _, row := range summaryRows(&metrics) {
		t.AppendRow(table.Row{row.Name, row.Value})
	}
	return t.RenderCSV(), nil
}
