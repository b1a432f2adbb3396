package output

import (
	"fmt"
	"strings"

	"github.com/devpulse/devpulse/internal/core/stats"
	"github.com/devpulse/devpulse/internal/insight"
)

// metricRow is one summary line shared by the table, markdown, csv and
// text renderers.
type metricRow struct {
	Name  string
	Value string
}

func summaryRows(metrics *stats.ProductivityMetrics) []metricRow {
	if metrics == nil {
		return nil
	}

	rows := []metricRow{
		{"commits_total", fmt.Sprintf("%d", metrics.Commits.Total)},
		{"daily_commit_average", fmt.Sprintf("%.2f", metrics.DailyCommitAverage)},
		{"avg_additions_per_commit", fmt.Sprintf("%.1f", metrics.Commits.AvgAdditions)},
		{"avg_deletions_per_commit", fmt.Sprintf("%.1f", metrics.Commits.AvgDeletions)},
		{"prs_total", fmt.Sprintf("%d", metrics.PullRequests.Total)},
		{"prs_merged", fmt.Sprintf("%d", metrics.PullRequests.Merged)},
		{"pr_merge_rate", fmt.Sprintf("%.1f%%", metrics.PullRequests.MergeRate)},
		{"avg_time_to_merge_hours", fmt.Sprintf("%.1f", metrics.PullRequests.AvgTimeToMergeHours)},
		{"reviews_given", fmt.Sprintf("%d", metrics.Reviews.ReviewsGiven)},
		{"reviews_received", fmt.Sprintf("%d", metrics.Reviews.ReviewsReceived)},
		{"review_response_hours", fmt.Sprintf("%.1f", metrics.Reviews.AvgResponseTimeHours)},
		{"review_participation_rate", fmt.Sprintf("%.1f%%", metrics.Reviews.ParticipationRate)},
		{"issues_open", fmt.Sprintf("%d", metrics.Issues.TotalOpen)},
		{"issues_closed", fmt.Sprintf("%d", metrics.Issues.TotalClosed)},
		{"issue_resolution_rate", fmt.Sprintf("%.1f%%", metrics.Issues.ResolutionRate)},
		{"avg_time_to_close_hours", fmt.Sprintf("%.1f", metrics.Issues.AvgTimeToCloseHours)},
	}
	return rows
}

func reportTitle(doc *Document) string {
	if doc == nil || doc.Report == nil {
		return "activity report"
	}
	title := doc.Report.Repo.Slug()
	metrics := doc.Report.Metrics
	window := fmt.Sprintf("%s to %s",
		metrics.Period.Start.UTC().Format("2006-01-02"),
		metrics.Period.End.UTC().Format("2006-01-02"))
	if metrics.Author != "" {
		return fmt.Sprintf("%s (%s) %s", title, metrics.Author, window)
	}
	return title + " " + window
}

// insightSection is rendered after the tables; markdown uses headings,
// plain output uses indentation.
type insightSection struct {
	Title string
	Lines []string
}

func insightSections(report *insight.AnalysisReport) []insightSection {
	if report == nil {
		return nil
	}

	var sections []insightSection

	summary := insightSection{Title: "Summary"}
	if strings.TrimSpace(report.Summary) != "" {
		summary.Lines = append(summary.Lines, report.Summary)
	}
	if report.Model != "" {
		source := "model: " + report.Model
		if report.Cached {
			source += " (cached)"
		}
		summary.Lines = append(summary.Lines, source)
	}
	if len(summary.Lines) > 0 {
		sections = append(sections, summary)
	}

	if len(report.KeyInsights) > 0 {
		sections = append(sections, insightSection{Title: "Key Insights", Lines: report.KeyInsights})
	}
	if len(report.Recommendations) > 0 {
		sections = append(sections, insightSection{Title: "Recommendations", Lines: report.Recommendations})
	}
	if len(report.Anomalies) > 0 {
		section := insightSection{Title: "Anomalies"}
		for _, anomaly := range report.Anomalies {
			section.Lines = append(section.Lines, fmt.Sprintf("[%s] %s: expected %s, got %s",
				anomaly.Severity, anomaly.Metric, anomaly.Expected, anomaly.Actual))
		}
		sections = append(sections, section)
	}

	return sections
}

func renderInsightSections(sections []insightSection, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, section := range sections {
		if markdown {
			sb.WriteString(fmt.Sprintf("\n### %s\n\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString("- " + line + "\n")
			}
		} else {
			sb.WriteString("\n" + section.Title + "\n")
			for _, line := range section.Lines {
				sb.WriteString("  " + line + "\n")
			}
		}
	}
	return sb.String()
}
