package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// perPage is the GitHub maximum. Pagination stops at the first short page.
const perPage = 100

type getter interface {
	getRaw(ctx context.Context, path string, query url.Values) ([]byte, error)
}

func listAll[T any](ctx context.Context, g getter, path string, query url.Values) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		q := url.Values{}
		for key, vals := range query {
			q[key] = vals
		}
		q.Set("per_page", strconv.Itoa(perPage))
		q.Set("page", strconv.Itoa(page))

		body, err := g.getRaw(ctx, path, q)
		if err != nil {
			return nil, err
		}

		var batch []T
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", path, page, err)
		}

		all = append(all, batch...)
		if len(batch) < perPage {
			return all, nil
		}
	}
}

func getOne[T any](ctx context.Context, g getter, path string, query url.Values) (T, error) {
	var out T
	body, err := g.getRaw(ctx, path, query)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// Wire shapes for the subset of the REST payloads devpulse reads.

type apiCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Stats *struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
	Files []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

func (a apiCommit) toCore() core.Commit {
	commit := core.Commit{
		SHA:         a.SHA,
		Author:      a.Commit.Author.Name,
		AuthorEmail: a.Commit.Author.Email,
		Message:     a.Commit.Message,
		CommittedAt: a.Commit.Author.Date,
	}
	if a.Author != nil && a.Author.Login != "" {
		commit.Author = a.Author.Login
	}
	if a.Stats != nil {
		commit.Additions = a.Stats.Additions
		commit.Deletions = a.Stats.Deletions
	}
	commit.FilesChanged = len(a.Files)
	return commit
}

type apiPull struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	User   *struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Commits   int        `json:"commits"`
}

func (a apiPull) toCore() core.PullRequest {
	pr := core.PullRequest{
		Number:    a.Number,
		Title:     a.Title,
		State:     core.PRStateOpen,
		CreatedAt: a.CreatedAt,
		MergedAt:  a.MergedAt,
		ClosedAt:  a.ClosedAt,
		Additions: a.Additions,
		Deletions: a.Deletions,
		Commits:   a.Commits,
	}
	if a.User != nil {
		pr.Author = a.User.Login
	}
	switch {
	case a.MergedAt != nil:
		pr.State = core.PRStateMerged
	case a.State == "closed":
		pr.State = core.PRStateClosed
	}
	return pr
}

type apiReview struct {
	ID   int64 `json:"id"`
	User *struct {
		Login string `json:"login"`
	} `json:"user"`
	State       string     `json:"state"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

func (a apiReview) toCore(prNumber int) core.Review {
	review := core.Review{
		ID:       a.ID,
		PRNumber: prNumber,
		Verdict:  core.ReviewVerdict(a.State),
	}
	if a.User != nil {
		review.Reviewer = a.User.Login
	}
	if a.SubmittedAt != nil {
		review.SubmittedAt = *a.SubmittedAt
	}
	return review
}

type apiIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	User   *struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at"`
	Assignees []struct {
		Login string `json:"login"`
	} `json:"assignees"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request"`
}

func (a apiIssue) toCore() core.Issue {
	issue := core.Issue{
		Number:    a.Number,
		Title:     a.Title,
		State:     a.State,
		CreatedAt: a.CreatedAt,
		ClosedAt:  a.ClosedAt,
	}
	if a.User != nil {
		issue.Author = a.User.Login
	}
	for _, assignee := range a.Assignees {
		issue.Assignees = append(issue.Assignees, assignee.Login)
	}
	for _, label := range a.Labels {
		issue.Labels = append(issue.Labels, label.Name)
	}
	return issue
}

type apiRepo struct {
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	Fork     bool   `json:"fork"`
}

type apiUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}
