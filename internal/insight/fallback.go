package insight

import (
	"fmt"

	"github.com/devpulse/devpulse/internal/core/stats"
)

// FallbackReport builds a deterministic report straight from the
// numbers. Used when no AI provider is configured or the provider is
// unreachable after retries, so every surface can still render an
// insights section.
func FallbackReport(metrics *stats.ProductivityMetrics) *AnalysisReport {
	report := &AnalysisReport{
		Confidence: 0,
		Model:      "fallback",
	}
	if metrics == nil {
		report.Summary = "No activity data available for this period."
		return report
	}

	days := metrics.Period.Days()
	report.Summary = fmt.Sprintf(
		"Over %d days: %d commits, %d pull requests (%d merged), %d reviews given, %d issues closed.",
		days,
		metrics.Commits.Total,
		metrics.PullRequests.Total,
		metrics.PullRequests.Merged,
		metrics.Reviews.ReviewsGiven,
		metrics.Issues.TotalClosed,
	)

	report.KeyInsights = append(report.KeyInsights,
		fmt.Sprintf("Average of %.1f commits per day.", metrics.DailyCommitAverage))
	if metrics.PullRequests.Total > 0 {
		report.KeyInsights = append(report.KeyInsights,
			fmt.Sprintf("Pull request merge rate is %.0f%% with an average time to merge of %.1f hours.",
				metrics.PullRequests.MergeRate, metrics.PullRequests.AvgTimeToMergeHours))
	}
	if metrics.Reviews.ReviewsGiven > 0 {
		report.KeyInsights = append(report.KeyInsights,
			fmt.Sprintf("Average review response time is %.1f hours.", metrics.Reviews.AvgResponseTimeHours))
	}

	report.Anomalies = fallbackAnomalies(metrics)
	for _, anomaly := range report.Anomalies {
		switch anomaly.Metric {
		case "merge_rate":
			report.Recommendations = append(report.Recommendations,
				"Review stale pull requests; the merge rate is below half.")
		case "avg_response_time_hours":
			report.Recommendations = append(report.Recommendations,
				"Review turnaround exceeds two days; consider rebalancing reviewer load.")
		case "resolution_rate":
			report.Recommendations = append(report.Recommendations,
				"Issues are accumulating faster than they close; triage the backlog.")
		}
	}
	if len(report.Recommendations) == 0 {
		report.Recommendations = append(report.Recommendations,
			"No obvious process problems detected in this period.")
	}

	return report
}

// fallbackAnomalies applies fixed thresholds. The AI path finds subtler
// patterns; these catch only the unambiguous ones.
func fallbackAnomalies(metrics *stats.ProductivityMetrics) []Anomaly {
	var anomalies []Anomaly

	if metrics.PullRequests.Total >= 5 && metrics.PullRequests.MergeRate < 50 {
		anomalies = append(anomalies, Anomaly{
			Metric:   "merge_rate",
			Severity: SeverityMedium,
			Expected: ">= 50%",
			Actual:   fmt.Sprintf("%.0f%%", metrics.PullRequests.MergeRate),
		})
	}
	if metrics.Reviews.ReviewsGiven > 0 && metrics.Reviews.AvgResponseTimeHours > 48 {
		anomalies = append(anomalies, Anomaly{
			Metric:   "avg_response_time_hours",
			Severity: SeverityHigh,
			Expected: "<= 48h",
			Actual:   fmt.Sprintf("%.1fh", metrics.Reviews.AvgResponseTimeHours),
		})
	}
	total := metrics.Issues.TotalOpen + metrics.Issues.TotalClosed
	if total >= 5 && metrics.Issues.ResolutionRate < 25 {
		anomalies = append(anomalies, Anomaly{
			Metric:   "resolution_rate",
			Severity: SeverityMedium,
			Expected: ">= 25%",
			Actual:   fmt.Sprintf("%.0f%%", metrics.Issues.ResolutionRate),
		})
	}
	if metrics.Commits.Total == 0 && metrics.Period.Days() >= 7 {
		anomalies = append(anomalies, Anomaly{
			Metric:   "commits_total",
			Severity: SeverityLow,
			Expected: "> 0",
			Actual:   "0",
		})
	}

	return anomalies
}
