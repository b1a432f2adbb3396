package cmd

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/core/stats"
)

func TestResolvePeriodFromDays(t *testing.T) {
	period, err := resolvePeriod(30, "", "")
	require.NoError(t, err)
	require.Equal(t, 30, period.Days())
	require.WithinDuration(t, time.Now().UTC(), period.End, time.Minute)
}

func TestResolvePeriodExplicitDates(t *testing.T) {
	period, err := resolvePeriod(0, "2026-07-01", "2026-07-31")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), period.Start)
	// Inclusive end date.
	require.Equal(t, time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC), period.End)
}

func TestResolvePeriodRejectsInvertedDates(t *testing.T) {
	_, err := resolvePeriod(0, "2026-07-31", "2026-07-01")
	require.Error(t, err)
}

func TestResolvePeriodCapsWindow(t *testing.T) {
	_, err := resolvePeriod(366, "", "")
	require.ErrorContains(t, err, "at most 365")
}

func TestResolveReportRequest(t *testing.T) {
	testCmd := &cobra.Command{Use: "test"}
	registerPeriodFlags(testCmd)
	require.NoError(t, testCmd.Flags().Set("days", "14"))
	require.NoError(t, testCmd.Flags().Set("author", "octocat"))
	require.NoError(t, testCmd.Flags().Set("bucket", "daily"))

	req, err := resolveReportRequest(testCmd, []string{"acme/widgets"})
	require.NoError(t, err)
	require.Equal(t, "acme", req.Repo.Owner)
	require.Equal(t, "widgets", req.Repo.Name)
	require.Equal(t, "octocat", req.Author)
	require.Equal(t, stats.BucketDaily, req.Bucket)
	require.Equal(t, 14, req.Period.Days())
}

func TestPeriodFlagsAdvertiseAllBuckets(t *testing.T) {
	testCmd := &cobra.Command{Use: "test"}
	registerPeriodFlags(testCmd)

	usage := testCmd.Flags().Lookup("bucket").Usage
	for _, bucket := range []string{"daily", "weekly", "monthly", "quarterly"} {
		require.Contains(t, usage, bucket)
		_, err := stats.ParseBucket(bucket)
		require.NoError(t, err)
	}
}

func TestResolveReportRequestRejectsBadRepo(t *testing.T) {
	testCmd := &cobra.Command{Use: "test"}
	registerPeriodFlags(testCmd)

	_, err := resolveReportRequest(testCmd, []string{"not-a-repo"})
	require.Error(t, err)
}

func TestBuildServiceWiresGitHubClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.GitHub.BaseURL = "https://github.example.test"
	cfg.GitHub.Token = "test-token"
	cfg.GitHub.MaxAttempts = 5
	cfg.GitHub.BaseDelay = time.Second
	cfg.GitHub.MaxDelay = 10 * time.Second
	cfg.Insight.Enabled = false

	svc, err := buildService(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, svc.Client)
	require.Equal(t, "https://github.example.test", svc.Client.BaseURL)
	require.Equal(t, 5, svc.Client.Retry.MaxAttempts)
	require.Nil(t, svc.Analyzer)
}

func TestBuildServiceRequiresConfig(t *testing.T) {
	_, err := buildService(nil, nil)
	require.Error(t, err)
}

func TestBuildAnalyzerSkipsWithoutKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Insight.Enabled = true

	analyzer, err := buildAnalyzer(cfg, nil)
	require.NoError(t, err)
	require.Nil(t, analyzer)
}

func TestBuildAnalyzerWiresDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Insight.Enabled = true
	cfg.Insight.APIKey = "test-key"
	cfg.Insight.Model = "gpt-4o-mini"
	cfg.Insight.BaseURL = "https://ai.example.test/v1"
	cfg.Insight.CacheTTL = time.Hour

	analyzer, err := buildAnalyzer(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, analyzer)
	require.Equal(t, "gpt-4o-mini", analyzer.Model)
	require.Equal(t, "https://ai.example.test/v1", analyzer.BaseURL)
	require.Equal(t, "openai", analyzer.Driver.Name())
}
