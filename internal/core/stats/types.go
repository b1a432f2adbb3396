package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// Bucket is the velocity time series granularity.
type Bucket string

const (
	BucketDaily     Bucket = "daily"
	BucketWeekly    Bucket = "weekly"
	BucketMonthly   Bucket = "monthly"
	BucketQuarterly Bucket = "quarterly"
)

// ParseBucket validates a bucket name.
func ParseBucket(value string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(value))) {
	case BucketDaily:
		return BucketDaily, nil
	case BucketWeekly:
		return BucketWeekly, nil
	case BucketMonthly:
		return BucketMonthly, nil
	case BucketQuarterly:
		return BucketQuarterly, nil
	case "":
		return BucketWeekly, nil
	default:
		return "", fmt.Errorf("invalid bucket %q", value)
	}
}

// CommitMetrics aggregates commit activity.
type CommitMetrics struct {
	Total            int            `json:"total"`
	DailyFrequency   map[string]int `json:"daily_frequency,omitempty"`
	WeeklyFrequency  map[string]int `json:"weekly_frequency,omitempty"`
	MonthlyFrequency map[string]int `json:"monthly_frequency,omitempty"`
	HourlyFrequency  map[int]int    `json:"hourly_frequency,omitempty"`
	MostActiveHours  []int          `json:"most_active_hours,omitempty"`
	AvgAdditions     float64        `json:"avg_additions"`
	AvgDeletions     float64        `json:"avg_deletions"`
	AvgFilesChanged  float64        `json:"avg_files_changed"`
	AvgMessageLength float64        `json:"avg_message_length"`
}

// PRMetrics aggregates pull request activity.
type PRMetrics struct {
	Total               int     `json:"total"`
	Open                int     `json:"open"`
	Merged              int     `json:"merged"`
	Closed              int     `json:"closed"`
	MergeRate           float64 `json:"merge_rate"`
	AvgTimeToMergeHours float64 `json:"avg_time_to_merge_hours"`
	AvgAdditions        float64 `json:"avg_additions"`
	AvgDeletions        float64 `json:"avg_deletions"`
	AvgCommits          float64 `json:"avg_commits"`
}

// ReviewMetrics aggregates review activity. When an author filter is set,
// given/received are relative to that author and participation excludes the
// author's own pull requests.
type ReviewMetrics struct {
	ReviewsGiven         int     `json:"reviews_given"`
	ReviewsReceived      int     `json:"reviews_received"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	ApprovalRate         float64 `json:"approval_rate"`
	ChangeRequestRate    float64 `json:"change_request_rate"`
	ParticipationRate    float64 `json:"participation_rate"`
}

// IssueMetrics aggregates issue activity.
type IssueMetrics struct {
	TotalOpen           int     `json:"total_open"`
	TotalClosed         int     `json:"total_closed"`
	ResolutionRate      float64 `json:"resolution_rate"`
	AvgTimeToCloseHours float64 `json:"avg_time_to_close_hours"`
	Created             int     `json:"created"`
	Assigned            int     `json:"assigned"`
}

// VelocityPoint is one bucket of the velocity time series.
type VelocityPoint struct {
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	Commits      int       `json:"commits"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	PRsCreated   int       `json:"prs_created"`
	IssuesClosed int       `json:"issues_closed"`
}

// ProductivityMetrics is the full computed report body.
type ProductivityMetrics struct {
	Period             core.Period     `json:"period"`
	Author             string          `json:"author,omitempty"`
	Commits            CommitMetrics   `json:"commits"`
	PullRequests       PRMetrics       `json:"pull_requests"`
	Reviews            ReviewMetrics   `json:"reviews"`
	Issues             IssueMetrics    `json:"issues"`
	Velocity           []VelocityPoint `json:"velocity,omitempty"`
	DailyCommitAverage float64         `json:"daily_commit_average"`

	ReviewerPatterns []ReviewerPattern `json:"reviewer_patterns,omitempty"`
	IssuesByLabel    []LabelPattern    `json:"issues_by_label,omitempty"`
	IssuesByAssignee []LabelPattern    `json:"issues_by_assignee,omitempty"`
}

// Report pairs computed metrics with fetch provenance.
type Report struct {
	Repo       core.Repo           `json:"repo"`
	Metrics    ProductivityMetrics `json:"metrics"`
	Provenance core.Provenance     `json:"provenance"`
}

// ReviewerPattern summarizes one reviewer's behavior.
type ReviewerPattern struct {
	Reviewer            string  `json:"reviewer"`
	Reviews             int     `json:"reviews"`
	ApprovalRate        float64 `json:"approval_rate"`
	ChangeRequestRate   float64 `json:"change_request_rate"`
	MeanResponseHours   float64 `json:"mean_response_hours"`
	MedianResponseHours float64 `json:"median_response_hours"`
}

// LabelPattern summarizes issue flow for one label or assignee.
type LabelPattern struct {
	Key               string  `json:"key"`
	Total             int     `json:"total"`
	Closed            int     `json:"closed"`
	ResolutionRate    float64 `json:"resolution_rate"`
	MeanResolutionHrs float64 `json:"mean_resolution_hours"`
}
