package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a report as markdown tables.
type MarkdownFormatter struct{}

// FormatReport renders the document as Markdown.
func (f *MarkdownFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	metrics := doc.Report.Metrics

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(reportTitle(doc))))
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, row := range summaryRows(&metrics) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n",
			escapeMarkdownCell(row.Name),
			escapeMarkdownCell(row.Value),
		))
	}

	if len(metrics.Velocity) > 0 {
		sb.WriteString("\n### Velocity\n\n")
		sb.WriteString("| Bucket | Commits | Additions | Deletions | PRs | Issues Closed |\n")
		sb.WriteString("|--------|---------|-----------|-----------|-----|---------------|\n")
		for _, point := range metrics.Velocity {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d |\n",
				escapeMarkdownCell(point.Label),
				point.Commits,
				point.Additions,
				point.Deletions,
				point.PRsCreated,
				point.IssuesClosed,
			))
		}
	}

	sb.WriteString(renderInsightSections(insightSections(doc.Insights), true))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
