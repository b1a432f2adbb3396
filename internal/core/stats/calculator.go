package stats

import (
	"sort"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// Compute derives the full metrics body from fetched activity. The author
// filter, when non-empty, scopes review and issue attribution.
func Compute(activity *core.Activity, author string, bucket Bucket) ProductivityMetrics {
	metrics := ProductivityMetrics{
		Period:       activity.Period,
		Author:       author,
		Commits:      CommitStats(activity.Commits),
		PullRequests: PullRequestStats(activity.PullRequests),
		Reviews:      ReviewStats(activity.PullRequests, author),
		Issues:       IssueStats(activity.Issues, author),
		Velocity:     Velocity(activity, bucket),

		ReviewerPatterns: ReviewerPatterns(activity.PullRequests),
		IssuesByLabel:    IssuePatternsByLabel(activity.Issues),
		IssuesByAssignee: IssuePatternsByAssignee(activity.Issues),
	}
	metrics.DailyCommitAverage = float64(metrics.Commits.Total) / float64(activity.Period.Days())
	return metrics
}

// CommitStats aggregates commit frequency and size.
func CommitStats(commits []core.Commit) CommitMetrics {
	m := CommitMetrics{Total: len(commits)}
	if len(commits) == 0 {
		return m
	}

	m.DailyFrequency = make(map[string]int)
	m.WeeklyFrequency = make(map[string]int)
	m.MonthlyFrequency = make(map[string]int)
	m.HourlyFrequency = make(map[int]int)

	var additions, deletions, files, messageLen int
	for _, commit := range commits {
		at := commit.CommittedAt.UTC()
		m.DailyFrequency[at.Format("2006-01-02")]++
		year, week := at.ISOWeek()
		m.WeeklyFrequency[isoWeekLabel(year, week)]++
		m.MonthlyFrequency[at.Format("2006-01")]++
		m.HourlyFrequency[at.Hour()]++

		additions += commit.Additions
		deletions += commit.Deletions
		files += commit.FilesChanged
		messageLen += len(commit.Message)
	}

	total := float64(len(commits))
	m.AvgAdditions = float64(additions) / total
	m.AvgDeletions = float64(deletions) / total
	m.AvgFilesChanged = float64(files) / total
	m.AvgMessageLength = float64(messageLen) / total
	m.MostActiveHours = topHours(m.HourlyFrequency, 3)
	return m
}

// PullRequestStats aggregates merge flow.
func PullRequestStats(pulls []core.PullRequest) PRMetrics {
	m := PRMetrics{Total: len(pulls)}
	if len(pulls) == 0 {
		return m
	}

	var additions, deletions, commits int
	var mergeTime time.Duration
	for _, pr := range pulls {
		switch pr.State {
		case core.PRStateOpen:
			m.Open++
		case core.PRStateMerged:
			m.Merged++
		case core.PRStateClosed:
			m.Closed++
		}
		if d, ok := pr.TimeToMerge(); ok {
			mergeTime += d
		}
		additions += pr.Additions
		deletions += pr.Deletions
		commits += pr.Commits
	}

	total := float64(len(pulls))
	m.MergeRate = float64(m.Merged) / total * 100
	if m.Merged > 0 {
		m.AvgTimeToMergeHours = mergeTime.Hours() / float64(m.Merged)
	}
	m.AvgAdditions = float64(additions) / total
	m.AvgDeletions = float64(deletions) / total
	m.AvgCommits = float64(commits) / total
	return m
}

// ReviewStats aggregates review behavior across the pull requests. With an
// author set, given counts that author's reviews on others' work and
// received counts reviews on the author's own pull requests.
func ReviewStats(pulls []core.PullRequest, author string) ReviewMetrics {
	var m ReviewMetrics

	var totalReviews, approvals, changeRequests int
	var responseTime time.Duration
	var responded int
	var eligible, reviewed int

	for _, pr := range pulls {
		if author != "" && pr.Author == author {
			m.ReviewsReceived += len(pr.Reviews)
		}

		counted := author == "" || pr.Author != author
		if counted {
			eligible++
			if len(pr.Reviews) > 0 {
				reviewed++
			}
		}

		for _, review := range pr.Reviews {
			if author != "" && review.Reviewer != author {
				continue
			}
			if author != "" && pr.Author == author {
				// Self-reviews do not count as given.
				continue
			}
			m.ReviewsGiven++
			totalReviews++
			switch review.Verdict {
			case core.ReviewApproved:
				approvals++
			case core.ReviewChangesRequested:
				changeRequests++
			}
			if !review.SubmittedAt.IsZero() && review.SubmittedAt.After(pr.CreatedAt) {
				responseTime += review.SubmittedAt.Sub(pr.CreatedAt)
				responded++
			}
		}
	}

	if author == "" {
		var received int
		for _, pr := range pulls {
			received += len(pr.Reviews)
		}
		m.ReviewsReceived = received
	}

	if totalReviews > 0 {
		m.ApprovalRate = float64(approvals) / float64(totalReviews) * 100
		m.ChangeRequestRate = float64(changeRequests) / float64(totalReviews) * 100
	}
	if responded > 0 {
		m.AvgResponseTimeHours = responseTime.Hours() / float64(responded)
	}
	if eligible > 0 {
		m.ParticipationRate = float64(reviewed) / float64(eligible) * 100
	}
	return m
}

// IssueStats aggregates issue flow.
func IssueStats(issues []core.Issue, author string) IssueMetrics {
	var m IssueMetrics

	var closeTime time.Duration
	for _, issue := range issues {
		if issue.ClosedAt != nil {
			m.TotalClosed++
			if d, ok := issue.TimeToClose(); ok {
				closeTime += d
			}
		} else {
			m.TotalOpen++
		}

		if author == "" || issue.Author == author {
			m.Created++
		}
		for _, assignee := range issue.Assignees {
			if author == "" || assignee == author {
				m.Assigned++
				break
			}
		}
	}

	total := m.TotalOpen + m.TotalClosed
	if total > 0 {
		m.ResolutionRate = float64(m.TotalClosed) / float64(total) * 100
	}
	if m.TotalClosed > 0 {
		m.AvgTimeToCloseHours = closeTime.Hours() / float64(m.TotalClosed)
	}
	return m
}

func topHours(freq map[int]int, n int) []int {
	hours := make([]int, 0, len(freq))
	for hour := range freq {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool {
		if freq[hours[i]] != freq[hours[j]] {
			return freq[hours[i]] > freq[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > n {
		hours = hours[:n]
	}
	return hours
}
