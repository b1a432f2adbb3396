package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/github"
	"github.com/devpulse/devpulse/internal/core/stats"
	"github.com/devpulse/devpulse/internal/core/store"
	"github.com/devpulse/devpulse/internal/insight"
	"github.com/devpulse/devpulse/internal/metrics"
	"github.com/devpulse/devpulse/internal/observability"
	"github.com/devpulse/devpulse/internal/output"
)

// Service orchestrates one report build: fetch activity through a
// render-scoped session, compute metrics, optionally attach insights,
// and record history. Both the CLI and the HTTP handlers drive it.
type Service struct {
	Client      *github.Client
	Store       *store.Store
	Analyzer    *insight.Analyzer
	Fetch       github.FetchOptions
	ToolVersion string
}

// Request selects what to build.
type Request struct {
	Repo         core.Repo
	Period       core.Period
	Author       string
	Bucket       stats.Bucket
	WithInsights bool

	// PromptSlug picks the insight prompt; defaults to
	// productivity-analysis.
	PromptSlug string
}

// BuildReport fetches, computes and assembles a report document.
// Insight failures degrade to the deterministic fallback instead of
// failing the report; fetch failures are fatal.
func (s *Service) BuildReport(ctx context.Context, req Request) (*output.Document, error) {
	if s == nil || s.Client == nil {
		return nil, fmt.Errorf("github client not configured")
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = stats.BucketWeekly
	}

	opts := s.Fetch
	opts.Author = req.Author

	session := s.Client.NewSession()
	activity, provenance, err := session.FetchActivity(ctx, req.Repo, req.Period, opts)
	if err != nil {
		return nil, err
	}
	provenance.ToolVersion = s.ToolVersion

	computed := stats.Compute(activity, req.Author, bucket)
	report := &stats.Report{
		Repo:       req.Repo,
		Metrics:    computed,
		Provenance: *provenance,
	}

	doc := &output.Document{Report: report}
	if req.WithInsights {
		doc.Insights = s.insights(ctx, req, &computed)
	}

	s.saveHistory(ctx, req, report)
	metrics.RecordOperation("build_report", true)
	return doc, nil
}

// Ask builds the report for context and answers a free-form question
// about it.
func (s *Service) Ask(ctx context.Context, req Request, question string) (string, error) {
	if s == nil || s.Analyzer == nil {
		return "", fmt.Errorf("insights are not configured; set an API key to enable them")
	}

	doc, err := s.BuildReport(ctx, req)
	if err != nil {
		return "", err
	}

	return s.Analyzer.Ask(ctx, insight.Input{
		Repo:     req.Repo,
		Period:   req.Period,
		Author:   req.Author,
		Question: question,
		Payload:  doc.Report.Metrics,
	})
}

func (s *Service) insights(ctx context.Context, req Request, computed *stats.ProductivityMetrics) *insight.AnalysisReport {
	if s.Analyzer == nil {
		return insight.FallbackReport(computed)
	}

	slug := req.PromptSlug
	if slug == "" {
		slug = "productivity-analysis"
	}

	analysis, err := s.Analyzer.Analyze(ctx, insight.Input{
		PromptSlug: slug,
		Repo:       req.Repo,
		Period:     req.Period,
		Author:     req.Author,
		Bucket:     string(req.Bucket),
		Payload:    computed,
	})
	if err != nil {
		if observability.CLILogger != nil {
			observability.CLILogger.Warn("insight request failed, using fallback",
				zap.String("repo", req.Repo.Slug()),
				zap.String("prompt", slug),
				zap.Error(err))
		}
		metrics.RecordOperationError("insights", "provider")
		return insight.FallbackReport(computed)
	}

	metrics.RecordInsightRequest(slug, analysis.Cached)
	return analysis
}

// saveHistory is best effort; a report render never fails because the
// history write did.
func (s *Service) saveHistory(ctx context.Context, req Request, report *stats.Report) {
	if s.Store == nil {
		return
	}

	body, err := json.Marshal(report)
	if err != nil {
		return
	}

	record := store.ReportRecord{
		ID:         report.Provenance.ReportID,
		Repo:       req.Repo.Slug(),
		Author:     req.Author,
		Period:     req.Period,
		ReportJSON: string(body),
	}
	if err := s.Store.SaveReport(ctx, record); err != nil && observability.CLILogger != nil {
		observability.CLILogger.Warn("failed to record report history",
			zap.String("repo", req.Repo.Slug()),
			zap.Error(err))
	}
}
