package stats

import (
	"sort"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// ReviewerPatterns ranks reviewers by volume with per-reviewer rates and
// response times.
func ReviewerPatterns(pulls []core.PullRequest) []ReviewerPattern {
	type acc struct {
		reviews        int
		approvals      int
		changeRequests int
		responses      []time.Duration
	}
	byReviewer := make(map[string]*acc)

	for _, pr := range pulls {
		for _, review := range pr.Reviews {
			if review.Reviewer == "" {
				continue
			}
			a := byReviewer[review.Reviewer]
			if a == nil {
				a = &acc{}
				byReviewer[review.Reviewer] = a
			}
			a.reviews++
			switch review.Verdict {
			case core.ReviewApproved:
				a.approvals++
			case core.ReviewChangesRequested:
				a.changeRequests++
			}
			if !review.SubmittedAt.IsZero() && review.SubmittedAt.After(pr.CreatedAt) {
				a.responses = append(a.responses, review.SubmittedAt.Sub(pr.CreatedAt))
			}
		}
	}

	patterns := make([]ReviewerPattern, 0, len(byReviewer))
	for reviewer, a := range byReviewer {
		pattern := ReviewerPattern{
			Reviewer:          reviewer,
			Reviews:           a.reviews,
			ApprovalRate:      float64(a.approvals) / float64(a.reviews) * 100,
			ChangeRequestRate: float64(a.changeRequests) / float64(a.reviews) * 100,
		}
		if len(a.responses) > 0 {
			var total time.Duration
			for _, d := range a.responses {
				total += d
			}
			pattern.MeanResponseHours = total.Hours() / float64(len(a.responses))
			pattern.MedianResponseHours = median(a.responses).Hours()
		}
		patterns = append(patterns, pattern)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Reviews != patterns[j].Reviews {
			return patterns[i].Reviews > patterns[j].Reviews
		}
		return patterns[i].Reviewer < patterns[j].Reviewer
	})
	return patterns
}

// IssuePatternsByLabel summarizes issue resolution per label.
func IssuePatternsByLabel(issues []core.Issue) []LabelPattern {
	return issuePatterns(issues, func(issue core.Issue) []string { return issue.Labels })
}

// IssuePatternsByAssignee summarizes issue resolution per assignee.
func IssuePatternsByAssignee(issues []core.Issue) []LabelPattern {
	return issuePatterns(issues, func(issue core.Issue) []string { return issue.Assignees })
}

func issuePatterns(issues []core.Issue, keys func(core.Issue) []string) []LabelPattern {
	type acc struct {
		total     int
		closed    int
		closeTime time.Duration
	}
	byKey := make(map[string]*acc)

	for _, issue := range issues {
		for _, key := range keys(issue) {
			if key == "" {
				continue
			}
			a := byKey[key]
			if a == nil {
				a = &acc{}
				byKey[key] = a
			}
			a.total++
			if d, ok := issue.TimeToClose(); ok {
				a.closed++
				a.closeTime += d
			}
		}
	}

	patterns := make([]LabelPattern, 0, len(byKey))
	for key, a := range byKey {
		pattern := LabelPattern{
			Key:            key,
			Total:          a.total,
			Closed:         a.closed,
			ResolutionRate: float64(a.closed) / float64(a.total) * 100,
		}
		if a.closed > 0 {
			pattern.MeanResolutionHrs = a.closeTime.Hours() / float64(a.closed)
		}
		patterns = append(patterns, pattern)
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Total != patterns[j].Total {
			return patterns[i].Total > patterns[j].Total
		}
		return patterns[i].Key < patterns[j].Key
	})
	return patterns
}

func median(values []time.Duration) time.Duration {
	sorted := make([]time.Duration, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
