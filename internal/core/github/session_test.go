package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/core"
)

func TestPaginationStopsAtShortPage(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.Equal(t, "100", r.URL.Query().Get("per_page"))

		count := perPage
		if page == 2 {
			count = 30
		}
		items := make([]apiIssue, count)
		for i := range items {
			items[i] = apiIssue{Number: (page-1)*perPage + i + 1, State: "open", CreatedAt: time.Now().UTC()}
		}
		require.NoError(t, json.NewEncoder(w).Encode(items))
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: fixedClock()}
	session := client.NewSession()

	items, err := listAll[apiIssue](context.Background(), session, "/repos/octo/hello/issues", nil)
	require.NoError(t, err)
	require.Len(t, items, 130)
	require.Equal(t, 2, calls)
}

func TestSessionMemoizesPages(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"full_name":"octo/hello"}`)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: fixedClock()}
	session := client.NewSession()

	repo := core.Repo{Owner: "octo", Name: "hello"}
	require.NoError(t, session.ValidateRepo(context.Background(), repo))
	require.NoError(t, session.ValidateRepo(context.Background(), repo))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, session.Calls())

	// A fresh session starts cold.
	require.NoError(t, client.NewSession().ValidateRepo(context.Background(), repo))
	require.Equal(t, 2, calls)
}

func TestFetchActivity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	period := core.Period{Start: now.AddDate(0, 0, -30), End: now}

	merged := now.AddDate(0, 0, -2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/hello":
			fmt.Fprint(w, `{"full_name":"octo/hello"}`)
		case "/repos/octo/hello/commits":
			items := []apiCommit{{SHA: "abc123"}}
			items[0].Commit.Message = "fix parser"
			items[0].Commit.Author.Name = "octocat"
			items[0].Commit.Author.Date = now.AddDate(0, 0, -1)
			require.NoError(t, json.NewEncoder(w).Encode(items))
		case "/repos/octo/hello/pulls":
			items := []apiPull{{Number: 7, Title: "add parser", State: "closed", CreatedAt: now.AddDate(0, 0, -3), MergedAt: &merged}}
			require.NoError(t, json.NewEncoder(w).Encode(items))
		case "/repos/octo/hello/pulls/7":
			fmt.Fprint(w, `{"number":7,"additions":120,"deletions":30,"commits":4}`)
		case "/repos/octo/hello/pulls/7/reviews":
			submitted := now.AddDate(0, 0, -2)
			items := []apiReview{{ID: 1, State: "APPROVED", SubmittedAt: &submitted}}
			items[0].User = &struct {
				Login string `json:"login"`
			}{Login: "reviewer1"}
			require.NoError(t, json.NewEncoder(w).Encode(items))
		case "/repos/octo/hello/issues":
			items := []apiIssue{
				{Number: 9, Title: "bug", State: "closed", CreatedAt: now.AddDate(0, 0, -5)},
				{Number: 10, Title: "pr shadow", State: "open", CreatedAt: now.AddDate(0, 0, -4), PullRequest: &struct {
					URL string `json:"url"`
				}{URL: "x"}},
			}
			require.NoError(t, json.NewEncoder(w).Encode(items))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: func() time.Time { return now }}
	session := client.NewSession()

	activity, provenance, err := session.FetchActivity(context.Background(), core.Repo{Owner: "octo", Name: "hello"}, period, FetchOptions{})
	require.NoError(t, err)

	require.Len(t, activity.Commits, 1)
	require.Equal(t, "octocat", activity.Commits[0].Author)

	require.Len(t, activity.PullRequests, 1)
	pr := activity.PullRequests[0]
	require.Equal(t, core.PRStateMerged, pr.State)
	require.Equal(t, 120, pr.Additions)
	require.Len(t, pr.Reviews, 1)
	require.Equal(t, "reviewer1", pr.Reviews[0].Reviewer)

	require.Len(t, activity.Issues, 1)
	require.Equal(t, 9, activity.Issues[0].Number)

	require.NotEmpty(t, provenance.ReportID)
	require.Equal(t, githubSource, provenance.Source)
	require.Equal(t, provenance.APICalls, session.Calls())
}
