package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/engine"
	"github.com/devpulse/devpulse/internal/core/github"
	"github.com/devpulse/devpulse/internal/core/service"
	"github.com/devpulse/devpulse/internal/core/stats"
	"github.com/devpulse/devpulse/internal/core/store"
	"github.com/devpulse/devpulse/internal/insight"
	"github.com/devpulse/devpulse/internal/insight/driver/openai"
	"github.com/devpulse/devpulse/internal/insight/prompt"
	"github.com/devpulse/devpulse/internal/observability"
)

// buildService assembles the report service from config. The store may be
// nil, in which case rate limit state, insight caching and report history
// are disabled for the run.
func buildService(cfg *config.Config, db *store.Store) (*service.Service, error) {
	if cfg == nil {
		return nil, errors.New("config not loaded")
	}

	limiter := &engine.RateLimiter{Store: db}
	limiter.ApplyOverrides(cfg.RateLimits)
	limiter.ApplySafetyMargin(cfg.RateLimitMargin)

	client := &github.Client{
		Limiter: limiter,
		BaseURL: cfg.GitHub.BaseURL,
		Token:   cfg.GitHub.Token,
		Retry: github.RetryPolicy{
			MaxAttempts: cfg.GitHub.MaxAttempts,
			BaseDelay:   cfg.GitHub.BaseDelay,
			MaxDelay:    cfg.GitHub.MaxDelay,
		},
	}

	analyzer, err := buildAnalyzer(cfg, db)
	if err != nil {
		return nil, err
	}

	return &service.Service{
		Client:   client,
		Store:    db,
		Analyzer: analyzer,
		Fetch: github.FetchOptions{
			IncludeCommitStats: cfg.GitHub.IncludeCommitStats,
			CommitStatsLimit:   cfg.GitHub.CommitStatsLimit,
		},
		ToolVersion: versionInfo.Version,
	}, nil
}

// buildAnalyzer returns nil when insights are disabled or no API key is
// configured; the service then falls back to deterministic summaries.
func buildAnalyzer(cfg *config.Config, db *store.Store) (*insight.Analyzer, error) {
	if !cfg.Insight.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(cfg.Insight.APIKey) == "" {
		if observability.CLILogger != nil {
			observability.CLILogger.Debug("No insight API key configured, AI summaries disabled")
		}
		return nil, nil
	}

	registry, err := prompt.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	client := openai.NewClient(cfg.Insight.BaseURL, cfg.Insight.APIKey)
	if cfg.Insight.Timeout > 0 {
		client.Timeout = cfg.Insight.Timeout
	}

	analyzer := &insight.Analyzer{
		Driver:   client,
		Prompts:  registry,
		Cache:    db,
		Model:    cfg.Insight.Model,
		BaseURL:  cfg.Insight.BaseURL,
		CacheTTL: cfg.Insight.CacheTTL,
	}
	if cfg.Insight.Temperature > 0 {
		temperature := cfg.Insight.Temperature
		analyzer.Temperature = &temperature
	}
	if cfg.Insight.MaxTokens > 0 {
		maxTokens := cfg.Insight.MaxTokens
		analyzer.MaxTokens = &maxTokens
	}
	return analyzer, nil
}

// registerPeriodFlags adds the shared repo window flags used by the
// report-producing commands.
func registerPeriodFlags(cmd *cobra.Command) {
	cmd.Flags().Int("days", 30, "Analysis window length in days, ending now (max 365)")
	cmd.Flags().String("from", "", "Window start date (YYYY-MM-DD, overrides --days)")
	cmd.Flags().String("to", "", "Window end date (YYYY-MM-DD, inclusive, defaults to now)")
	cmd.Flags().String("author", "", "Filter activity to a single GitHub login")
	cmd.Flags().String("bucket", "weekly", "Velocity bucket: daily, weekly, monthly or quarterly")
}

// resolveReportRequest turns the positional repo argument and shared flags
// into a service request.
func resolveReportRequest(cmd *cobra.Command, args []string) (service.Request, error) {
	var req service.Request

	repo, err := core.ParseRepo(args[0])
	if err != nil {
		return req, err
	}
	req.Repo = repo

	days, err := cmd.Flags().GetInt("days")
	if err != nil {
		return req, err
	}
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return req, err
	}
	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return req, err
	}
	period, err := resolvePeriod(days, from, to)
	if err != nil {
		return req, err
	}
	req.Period = period

	author, err := cmd.Flags().GetString("author")
	if err != nil {
		return req, err
	}
	req.Author = strings.TrimSpace(author)

	bucketValue, err := cmd.Flags().GetString("bucket")
	if err != nil {
		return req, err
	}
	bucket, err := stats.ParseBucket(bucketValue)
	if err != nil {
		return req, err
	}
	req.Bucket = bucket

	return req, nil
}

const maxWindowDays = 365

func resolvePeriod(days int, from, to string) (core.Period, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)

	if from != "" || to != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return core.Period{}, errors.New("--from must be a YYYY-MM-DD date")
		}
		end := time.Now().UTC()
		if to != "" {
			end, err = time.Parse("2006-01-02", to)
			if err != nil {
				return core.Period{}, errors.New("--to must be a YYYY-MM-DD date")
			}
			// Inclusive end date.
			end = end.Add(24*time.Hour - time.Second)
		}
		if !end.After(start) {
			return core.Period{}, errors.New("--to must be after --from")
		}
		return core.Period{Start: start.UTC(), End: end.UTC()}, nil
	}

	if days <= 0 {
		return core.Period{}, errors.New("--days must be a positive integer")
	}
	if days > maxWindowDays {
		return core.Period{}, fmt.Errorf("--days must be at most %d", maxWindowDays)
	}
	return core.PeriodEnding(time.Now().UTC(), time.Duration(days)*24*time.Hour), nil
}

func logFetchStats(provenance core.Provenance, startedAt time.Time) {
	if observability.CLILogger == nil {
		return
	}
	observability.CLILogger.Info("Report complete",
		zap.Int("api_calls", provenance.APICalls),
		zap.Duration("elapsed", time.Since(startedAt)))
}
