package output

import (
	"html/template"
	"strings"
)

// HTMLFormatter renders a standalone HTML page suitable for export and
// sharing. The page carries no external assets.
type HTMLFormatter struct{}

type htmlPage struct {
	Title    string
	Doc      *Document
	Summary  []metricRow
	Sections []insightSection
}

// FormatReport renders the document as a self-contained HTML page.
func (f *HTMLFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	metrics := doc.Report.Metrics
	page := htmlPage{
		Title:    reportTitle(doc),
		Doc:      doc,
		Summary:  summaryRows(&metrics),
		Sections: insightSections(doc.Insights),
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, page); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1f2328; }
h1 { font-size: 1.4rem; }
h2 { font-size: 1.1rem; margin-top: 2rem; }
table { border-collapse: collapse; width: 100%; margin-top: 0.5rem; }
th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.7rem; text-align: left; }
th { background: #f6f8fa; }
.severity-HIGH { color: #cf222e; font-weight: 600; }
.severity-MEDIUM { color: #9a6700; font-weight: 600; }
.severity-LOW { color: #57606a; }
footer { margin-top: 2rem; color: #57606a; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<h2>Summary</h2>
<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range .Summary}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
{{end}}</table>

{{if .Doc.Report.Metrics.Velocity}}
<h2>Velocity</h2>
<table>
<tr><th>Bucket</th><th>Commits</th><th>Additions</th><th>Deletions</th><th>PRs</th><th>Issues Closed</th></tr>
{{range .Doc.Report.Metrics.Velocity}}<tr><td>{{.Label}}</td><td>{{.Commits}}</td><td>{{.Additions}}</td><td>{{.Deletions}}</td><td>{{.PRsCreated}}</td><td>{{.IssuesClosed}}</td></tr>
{{end}}</table>
{{end}}

{{if .Doc.Insights}}
{{if .Doc.Insights.Summary}}<h2>Insights</h2><p>{{.Doc.Insights.Summary}}</p>{{end}}
{{if .Doc.Insights.KeyInsights}}<h2>Key Insights</h2><ul>{{range .Doc.Insights.KeyInsights}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Doc.Insights.Recommendations}}<h2>Recommendations</h2><ul>{{range .Doc.Insights.Recommendations}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Doc.Insights.Anomalies}}
<h2>Anomalies</h2>
<table>
<tr><th>Metric</th><th>Severity</th><th>Expected</th><th>Actual</th></tr>
{{range .Doc.Insights.Anomalies}}<tr><td>{{.Metric}}</td><td class="severity-{{.Severity}}">{{.Severity}}</td><td>{{.Expected}}</td><td>{{.Actual}}</td></tr>
{{end}}</table>
{{end}}
{{end}}

<footer>
Report {{.Doc.Report.Provenance.ReportID}}, generated {{.Doc.Report.Provenance.ResolvedAt.UTC.Format "2006-01-02 15:04:05 MST"}} with {{.Doc.Report.Provenance.APICalls}} API calls.
</footer>
</body>
</html>
`))
