package core

import (
	"fmt"
	"strings"
	"time"
)

// Repo identifies a GitHub repository by owner and name.
type Repo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepo parses an "owner/name" slug.
func ParseRepo(slug string) (Repo, error) {
	parts := strings.Split(strings.TrimSpace(slug), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repository %q, expected owner/name", slug)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Slug returns a filesystem-safe identifier for the repository.
func (r Repo) Slug() string {
	return r.Owner + "-" + r.Name
}

// Period bounds an analysis window. Both ends are inclusive.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the window length in whole days, minimum 1.
func (p Period) Days() int {
	days := int(p.End.Sub(p.Start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// PeriodEnding builds a period of the given length ending at end.
func PeriodEnding(end time.Time, length time.Duration) Period {
	return Period{Start: end.Add(-length), End: end}
}

// Commit is a single commit observed in the analysis window.
type Commit struct {
	SHA          string    `json:"sha"`
	Author       string    `json:"author"`
	AuthorEmail  string    `json:"author_email,omitempty"`
	Message      string    `json:"message"`
	CommittedAt  time.Time `json:"committed_at"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
}

// PullRequestState mirrors the GitHub pull request lifecycle.
type PullRequestState string

const (
	PRStateOpen   PullRequestState = "open"
	PRStateMerged PullRequestState = "merged"
	PRStateClosed PullRequestState = "closed"
)

// PullRequest is a pull request observed in the analysis window.
type PullRequest struct {
	Number    int              `json:"number"`
	Title     string           `json:"title"`
	Author    string           `json:"author"`
	State     PullRequestState `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
	MergedAt  *time.Time       `json:"merged_at,omitempty"`
	ClosedAt  *time.Time       `json:"closed_at,omitempty"`
	Additions int              `json:"additions"`
	Deletions int              `json:"deletions"`
	Commits   int              `json:"commits"`
	Reviews   []Review         `json:"reviews,omitempty"`
}

// TimeToMerge returns the open-to-merge duration, or false when unmerged.
func (pr PullRequest) TimeToMerge() (time.Duration, bool) {
	if pr.MergedAt == nil {
		return 0, false
	}
	return pr.MergedAt.Sub(pr.CreatedAt), true
}

// ReviewVerdict is the outcome of a single pull request review.
type ReviewVerdict string

const (
	ReviewApproved         ReviewVerdict = "APPROVED"
	ReviewChangesRequested ReviewVerdict = "CHANGES_REQUESTED"
	ReviewCommented        ReviewVerdict = "COMMENTED"
	ReviewDismissed        ReviewVerdict = "DISMISSED"
)

// Review is a pull request review.
type Review struct {
	ID          int64         `json:"id"`
	PRNumber    int           `json:"pr_number"`
	Reviewer    string        `json:"reviewer"`
	Verdict     ReviewVerdict `json:"verdict"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// Issue is an issue observed in the analysis window. Pull requests surfaced
// by the issues endpoint are filtered out before this type is built.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	Assignees []string   `json:"assignees,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
}

// TimeToClose returns the open-to-close duration, or false when still open.
func (i Issue) TimeToClose() (time.Duration, bool) {
	if i.ClosedAt == nil {
		return 0, false
	}
	return i.ClosedAt.Sub(i.CreatedAt), true
}

// Activity bundles everything fetched for one repository and period.
type Activity struct {
	Repo         Repo          `json:"repo"`
	Period       Period        `json:"period"`
	Commits      []Commit      `json:"commits"`
	PullRequests []PullRequest `json:"pull_requests"`
	Issues       []Issue       `json:"issues"`
}

// Provenance captures metadata about how a report was produced.
type Provenance struct {
	ReportID    string    `json:"report_id"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	Source      string    `json:"source"`
	APICalls    int       `json:"api_calls,omitempty"`
	ToolVersion string    `json:"tool_version"`
}
