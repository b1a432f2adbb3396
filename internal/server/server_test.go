package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/core/github"
	"github.com/devpulse/devpulse/internal/core/service"
	apperrors "github.com/devpulse/devpulse/internal/errors"
	"github.com/devpulse/devpulse/internal/server/handlers"
)

// fakeGitHub serves just enough of the REST API for a report build.
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	recent := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"full_name":"acme/widgets"}`)
	})
	mux.HandleFunc("/repos/acme/widgets/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"sha":"abc123","commit":{"message":"fix parser","author":{"date":%q}},"author":{"login":"octocat"}}]`, recent)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"number":7,"title":"Add cache","user":{"login":"octocat"},"state":"closed","created_at":%q,"merged_at":%q}]`, recent, recent)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"number":7,"title":"Add cache","user":{"login":"octocat"},"state":"closed","created_at":%q,"merged_at":%q,"additions":10,"deletions":2,"commits":1}`, recent, recent)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/7/reviews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	mux.HandleFunc("/repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"number":12,"title":"Crash on empty input","user":{"login":"reporter"},"state":"open","created_at":%q}]`, recent)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testServer(t *testing.T) *Server {
	t.Helper()

	upstream := fakeGitHub(t)
	client := &github.Client{
		BaseURL: upstream.URL,
		Token:   "test-token",
	}
	svc := &service.Service{Client: client, ToolVersion: "test"}

	srv := New("127.0.0.1", 0, svc)
	t.Cleanup(handlers.ResetHTTPErrorResponder)
	return srv
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestReportEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report?repo=acme/widgets&days=30", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var doc struct {
		Report struct {
			Repo    struct{ Owner, Name string } `json:"repo"`
			Metrics struct {
				Commits struct {
					Total int `json:"total"`
				} `json:"commits"`
				PullRequests struct {
					Merged int `json:"merged"`
				} `json:"pull_requests"`
			} `json:"metrics"`
		} `json:"report"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&doc))
	require.Equal(t, "acme", doc.Report.Repo.Owner)
	require.Equal(t, 1, doc.Report.Metrics.Commits.Total)
	require.Equal(t, 1, doc.Report.Metrics.PullRequests.Merged)
}

func TestReportEndpointRequiresRepo(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/report", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestVelocityEndpoint(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/velocity?repo=acme/widgets&days=14&bucket=daily", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bucket   string `json:"bucket"`
		Velocity []struct {
			Label   string `json:"label"`
			Commits int    `json:"commits"`
		} `json:"velocity"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "daily", body.Bucket)
	// Daily buckets cover the whole window including empty days.
	require.GreaterOrEqual(t, len(body.Velocity), 14)
}

func TestExportEndpointSendsAttachment(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export?repo=acme/widgets&type=velocity&format=csv", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	disposition := rec.Header().Get("Content-Disposition")
	require.Contains(t, disposition, "attachment")
	require.Contains(t, disposition, "devpulse_velocity_acme-widgets_")
	require.Contains(t, rec.Body.String(), "bucket,commits")
}

func TestDashboardServesForm(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "Generate report")
}

func TestDashboardRendersReport(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/?repo=acme/widgets&days=30", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "acme/widgets"))
	require.Contains(t, body, "commits_total")
}

func TestHealthEndpoint(t *testing.T) {
	handlers.InitHealthManager("test")
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "healthy", body.Status)
}
