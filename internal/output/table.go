package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders a report as ASCII tables.
type TableFormatter struct{}

// FormatReport renders the metrics summary, the velocity series when
// present, and any insight sections.
func (f *TableFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	metrics := doc.Report.Metrics

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(reportTitle(doc))
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range summaryRows(&metrics) {
		t.AppendRow(table.Row{row.Name, row.Value})
	}

	rendered := t.Render()

	if len(metrics.Velocity) > 0 {
		v := table.NewWriter()
		v.SetStyle(table.StyleRounded)
		v.SetTitle("Velocity")
		v.AppendHeader(table.Row{"Bucket", "Commits", "Additions", "Deletions", "PRs", "Issues Closed"})
		for _, point := range metrics.Velocity {
			v.AppendRow(table.Row{
				point.Label,
				point.Commits,
				point.Additions,
				point.Deletions,
				point.PRsCreated,
				point.IssuesClosed,
			})
		}
		rendered += "\n" + v.Render()
	}

	rendered += renderInsightSections(insightSections(doc.Insights), false)

	if calls := doc.Report.Provenance.APICalls; calls > 0 {
		rendered += fmt.Sprintf("\nFetched with %d API calls at %s\n",
			calls, doc.Report.Provenance.ResolvedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	return rendered, nil
}
