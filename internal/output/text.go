package output

import (
	"fmt"
	"strings"
)

// TextFormatter renders a compact plain-text report for terminals and
// chat surfaces.
type TextFormatter struct{}

// FormatReport renders the document as plain text.
func (f *TextFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	metrics := doc.Report.Metrics

	var sb strings.Builder
	sb.WriteString(reportTitle(doc) + "\n")
	sb.WriteString(strings.Repeat("=", len(reportTitle(doc))) + "\n")
	for _, row := range summaryRows(&metrics) {
		sb.WriteString(fmt.Sprintf("%-28s %s\n", row.Name, row.Value))
	}

	if len(metrics.Velocity) > 0 {
		sb.WriteString("\nVelocity\n")
		for _, point := range metrics.Velocity {
			sb.WriteString(fmt.Sprintf("%-12s commits=%d prs=%d issues_closed=%d\n",
				point.Label, point.Commits, point.PRsCreated, point.IssuesClosed))
		}
	}

	sb.WriteString(renderInsightSections(insightSections(doc.Insights), false))
	return sb.String(), nil
}
