package insight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/stats"
	"github.com/devpulse/devpulse/internal/insight/content"
	"github.com/devpulse/devpulse/internal/insight/driver"
	"github.com/devpulse/devpulse/internal/insight/prompt"
)

type stubDriver struct {
	responses []stubResponse
	requests  []*driver.Request
}

type stubResponse struct {
	text string
	err  error
}

func (d *stubDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	d.requests = append(d.requests, req)
	if len(d.responses) == 0 {
		return nil, &driver.ProviderError{Provider: "stub", StatusCode: 500, Message: "no scripted response"}
	}
	next := d.responses[0]
	d.responses = d.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &driver.Response{
		Content:      []content.ContentBlock{{Type: content.ContentTypeText, Text: next.text}},
		FinishReason: "stop",
	}, nil
}

func (d *stubDriver) Name() string { return "stub" }

func (d *stubDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsJSONMode: true}
}

func testAnalyzer(t *testing.T, d driver.Driver) *Analyzer {
	t.Helper()
	registry, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	return &Analyzer{
		Driver:  d,
		Prompts: registry,
		Model:   "test-model",
		Sleep:   func(context.Context, time.Duration) error { return nil },
	}
}

func testInput(slug string) Input {
	return Input{
		PromptSlug: slug,
		Repo:       core.Repo{Owner: "acme", Name: "widgets"},
		Period: core.Period{
			Start: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		},
		Payload: map[string]int{"commits": 42},
	}
}

const validReport = `{
  "summary": "Healthy activity across the period.",
  "key_insights": ["Steady commit cadence."],
  "recommendations": ["Keep review load balanced."],
  "anomalies": [],
  "confidence": 0.8
}`

func TestAnalyzeParsesStructuredReport(t *testing.T) {
	d := &stubDriver{responses: []stubResponse{{text: validReport}}}
	analyzer := testAnalyzer(t, d)

	report, err := analyzer.Analyze(context.Background(), testInput("productivity-analysis"))
	require.NoError(t, err)
	require.Equal(t, "Healthy activity across the period.", report.Summary)
	require.Equal(t, 0.8, report.Confidence)
	require.Equal(t, "test-model", report.Model)
	require.False(t, report.Cached)

	require.Len(t, d.requests, 1)
	req := d.requests[0]
	require.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	require.Equal(t, "system", req.Messages[0].Role)
	require.Equal(t, "user", req.Messages[1].Role)
	require.NotNil(t, req.ResponseFormat)
	require.Equal(t, "json_object", req.ResponseFormat.Type)
}

func TestAnalyzeStripsCodeFence(t *testing.T) {
	d := &stubDriver{responses: []stubResponse{{text: "```json\n" + validReport + "\n```"}}}
	analyzer := testAnalyzer(t, d)

	report, err := analyzer.Analyze(context.Background(), testInput("productivity-analysis"))
	require.NoError(t, err)
	require.Equal(t, "Healthy activity across the period.", report.Summary)
}

func TestAnalyzeRetriesRateLimitThenSucceeds(t *testing.T) {
	var sleeps []time.Duration
	d := &stubDriver{responses: []stubResponse{
		{err: &driver.ProviderError{Provider: "stub", StatusCode: 429, Message: "slow down"}},
		{text: validReport},
	}}
	analyzer := testAnalyzer(t, d)
	analyzer.Sleep = func(_ context.Context, delay time.Duration) error {
		sleeps = append(sleeps, delay)
		return nil
	}

	report, err := analyzer.Analyze(context.Background(), testInput("productivity-analysis"))
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, d.requests, 2)
	require.Equal(t, []time.Duration{2 * time.Second}, sleeps)
}

func TestAnalyzeFailsFastOnAuthError(t *testing.T) {
	d := &stubDriver{responses: []stubResponse{
		{err: &driver.ProviderError{Provider: "stub", StatusCode: 401, Message: "bad key"}},
	}}
	analyzer := testAnalyzer(t, d)

	_, err := analyzer.Analyze(context.Background(), testInput("productivity-analysis"))
	require.Error(t, err)
	require.Len(t, d.requests, 1)
}

func TestAnalyzeStopsAtAttemptCeiling(t *testing.T) {
	serverErr := &driver.ProviderError{Provider: "stub", StatusCode: 503, Message: "unavailable"}
	d := &stubDriver{responses: []stubResponse{{err: serverErr}, {err: serverErr}, {err: serverErr}}}
	analyzer := testAnalyzer(t, d)

	_, err := analyzer.Analyze(context.Background(), testInput("productivity-analysis"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
	require.Len(t, d.requests, 3)
}

func TestAskRequiresQuestion(t *testing.T) {
	analyzer := testAnalyzer(t, &stubDriver{})
	_, err := analyzer.Ask(context.Background(), testInput("ask"))
	require.Error(t, err)
}

func TestAskReturnsPlainText(t *testing.T) {
	d := &stubDriver{responses: []stubResponse{{text: "  42 commits landed in July.  "}}}
	analyzer := testAnalyzer(t, d)

	in := testInput("ask")
	in.Question = "How many commits landed?"
	answer, err := analyzer.Ask(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "42 commits landed in July.", answer)
}

func TestFallbackReportFlagsLowMergeRate(t *testing.T) {
	metrics := &stats.ProductivityMetrics{
		Period: core.Period{
			Start: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		},
		Commits:      stats.CommitMetrics{Total: 10},
		PullRequests: stats.PRMetrics{Total: 10, Merged: 3, MergeRate: 30},
	}

	report := FallbackReport(metrics)
	require.Equal(t, "fallback", report.Model)
	require.Zero(t, report.Confidence)
	require.NotEmpty(t, report.Summary)

	var found bool
	for _, anomaly := range report.Anomalies {
		if anomaly.Metric == "merge_rate" {
			found = true
			require.Equal(t, SeverityMedium, anomaly.Severity)
		}
	}
	require.True(t, found)
}

func TestFallbackReportHandlesNilMetrics(t *testing.T) {
	report := FallbackReport(nil)
	require.NotEmpty(t, report.Summary)
	require.Empty(t, report.Anomalies)
}

func TestParseReportNormalizesSeverity(t *testing.T) {
	raw := `{"summary":"ok","anomalies":[{"metric":"x","severity":"weird","expected":"a","actual":"b"}],"confidence":1.5}`
	report, err := parseReport(raw)
	require.NoError(t, err)
	require.Equal(t, SeverityLow, report.Anomalies[0].Severity)
	require.Equal(t, 1.0, report.Confidence)
}
