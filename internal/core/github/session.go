package github

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devpulse/devpulse/internal/core"
)

// defaultStatsLimit caps per-commit detail fetches during one render. The
// commit list endpoint omits diff stats, so each sampled commit costs one
// extra call.
const defaultStatsLimit = 200

// Session scopes one dashboard render or CLI invocation. Responses are
// memoized for the session's lifetime so repeated reads of the same page
// cost one API call; nothing is persisted.
type Session struct {
	client *Client

	mu    sync.Mutex
	pages map[string][]byte
	calls int
}

// NewSession returns a fresh render-scoped session over the client.
func (c *Client) NewSession() *Session {
	return &Session{client: c, pages: make(map[string][]byte)}
}

// Calls reports the number of API calls made (cache hits excluded).
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Session) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	s.mu.Lock()
	if body, ok := s.pages[key]; ok {
		s.mu.Unlock()
		return body, nil
	}
	s.mu.Unlock()

	body, err := s.client.getRaw(ctx, path, query)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pages[key] = body
	s.calls++
	s.mu.Unlock()
	return body, nil
}

// FetchOptions tunes what a session fetch pulls in.
type FetchOptions struct {
	Author             string
	IncludeCommitStats bool
	CommitStatsLimit   int
}

// ValidateRepo confirms the repository exists and is reachable with the
// configured token.
func (s *Session) ValidateRepo(ctx context.Context, repo core.Repo) error {
	_, err := getOne[apiRepo](ctx, s, repoPath(repo, ""), nil)
	return err
}

// Viewer returns the login of the authenticated user.
func (s *Session) Viewer(ctx context.Context) (string, error) {
	user, err := getOne[apiUser](ctx, s, "/user", nil)
	if err != nil {
		return "", err
	}
	return user.Login, nil
}

// ListCommits returns commits in the period, newest first per the API order.
func (s *Session) ListCommits(ctx context.Context, repo core.Repo, period core.Period, opts FetchOptions) ([]core.Commit, error) {
	query := url.Values{}
	query.Set("since", period.Start.UTC().Format(time.RFC3339))
	query.Set("until", period.End.UTC().Format(time.RFC3339))
	if opts.Author != "" {
		query.Set("author", opts.Author)
	}

	raw, err := listAll[apiCommit](ctx, s, repoPath(repo, "/commits"), query)
	if err != nil {
		return nil, err
	}

	commits := make([]core.Commit, 0, len(raw))
	for _, item := range raw {
		commits = append(commits, item.toCore())
	}

	if opts.IncludeCommitStats {
		if err := s.enrichCommitStats(ctx, repo, commits, opts.CommitStatsLimit); err != nil {
			return nil, err
		}
	}
	return commits, nil
}

// enrichCommitStats fills additions/deletions from per-commit details for up
// to limit commits.
func (s *Session) enrichCommitStats(ctx context.Context, repo core.Repo, commits []core.Commit, limit int) error {
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	for i := range commits {
		if i >= limit {
			break
		}
		detail, err := getOne[apiCommit](ctx, s, repoPath(repo, "/commits/"+commits[i].SHA), nil)
		if err != nil {
			return err
		}
		enriched := detail.toCore()
		commits[i].Additions = enriched.Additions
		commits[i].Deletions = enriched.Deletions
		commits[i].FilesChanged = enriched.FilesChanged
	}
	return nil
}

// ListPullRequests returns pull requests created in the period, with diff
// stats and reviews attached.
func (s *Session) ListPullRequests(ctx context.Context, repo core.Repo, period core.Period, opts FetchOptions) ([]core.PullRequest, error) {
	query := url.Values{}
	query.Set("state", "all")
	query.Set("sort", "created")
	query.Set("direction", "desc")

	raw, err := listAll[apiPull](ctx, s, repoPath(repo, "/pulls"), query)
	if err != nil {
		return nil, err
	}

	var pulls []core.PullRequest
	for _, item := range raw {
		if item.CreatedAt.Before(period.Start) {
			// Sorted newest first, so everything after this is older.
			break
		}
		if item.CreatedAt.After(period.End) {
			continue
		}
		pr := item.toCore()
		if opts.Author != "" && pr.Author != opts.Author {
			continue
		}

		// The list payload omits diff stats and commit counts.
		detail, err := getOne[apiPull](ctx, s, repoPath(repo, fmt.Sprintf("/pulls/%d", pr.Number)), nil)
		if err != nil {
			return nil, err
		}
		pr.Additions = detail.Additions
		pr.Deletions = detail.Deletions
		pr.Commits = detail.Commits

		reviews, err := s.listReviews(ctx, repo, pr.Number)
		if err != nil {
			return nil, err
		}
		pr.Reviews = reviews

		pulls = append(pulls, pr)
	}
	return pulls, nil
}

func (s *Session) listReviews(ctx context.Context, repo core.Repo, prNumber int) ([]core.Review, error) {
	raw, err := listAll[apiReview](ctx, s, repoPath(repo, fmt.Sprintf("/pulls/%d/reviews", prNumber)), nil)
	if err != nil {
		return nil, err
	}

	reviews := make([]core.Review, 0, len(raw))
	for _, item := range raw {
		reviews = append(reviews, item.toCore(prNumber))
	}
	return reviews, nil
}

// ListIssues returns issues created in the period. Pull requests surfaced by
// the issues endpoint are dropped.
func (s *Session) ListIssues(ctx context.Context, repo core.Repo, period core.Period, opts FetchOptions) ([]core.Issue, error) {
	query := url.Values{}
	query.Set("state", "all")
	query.Set("since", period.Start.UTC().Format(time.RFC3339))

	raw, err := listAll[apiIssue](ctx, s, repoPath(repo, "/issues"), query)
	if err != nil {
		return nil, err
	}

	var issues []core.Issue
	for _, item := range raw {
		if item.PullRequest != nil {
			continue
		}
		if !period.Contains(item.CreatedAt) {
			continue
		}
		issue := item.toCore()
		if opts.Author != "" && issue.Author != opts.Author {
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// FetchActivity pulls everything needed for one report.
func (s *Session) FetchActivity(ctx context.Context, repo core.Repo, period core.Period, opts FetchOptions) (*core.Activity, *core.Provenance, error) {
	requestedAt := s.client.now()

	if err := s.ValidateRepo(ctx, repo); err != nil {
		return nil, nil, err
	}

	commits, err := s.ListCommits(ctx, repo, period, opts)
	if err != nil {
		return nil, nil, err
	}
	pulls, err := s.ListPullRequests(ctx, repo, period, opts)
	if err != nil {
		return nil, nil, err
	}
	issues, err := s.ListIssues(ctx, repo, period, opts)
	if err != nil {
		return nil, nil, err
	}

	activity := &core.Activity{
		Repo:         repo,
		Period:       period,
		Commits:      commits,
		PullRequests: pulls,
		Issues:       issues,
	}
	provenance := &core.Provenance{
		ReportID:    uuid.New().String(),
		RequestedAt: requestedAt,
		ResolvedAt:  s.client.now(),
		Source:      githubSource,
		APICalls:    s.Calls(),
	}
	return activity, provenance, nil
}

func repoPath(repo core.Repo, suffix string) string {
	return "/repos/" + repo.Owner + "/" + repo.Name + suffix
}
