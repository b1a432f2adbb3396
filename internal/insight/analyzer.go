package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/core"
	"github.com/devpulse/devpulse/internal/core/store"
	"github.com/devpulse/devpulse/internal/insight/content"
	"github.com/devpulse/devpulse/internal/insight/driver"
	"github.com/devpulse/devpulse/internal/insight/prompt"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Analyzer turns productivity metrics into narrative insights through
// an AI driver. Responses are cached per repo, prompt, model and period
// so repeated renders of the same window do not spend tokens.
//
// The zero value is not usable; Driver and Prompts are required.
type Analyzer struct {
	Driver   driver.Driver
	Prompts  prompt.Registry
	Cache    *store.Store
	Model    string
	BaseURL  string
	CacheTTL time.Duration

	Temperature *float64
	MaxTokens   *int
	MaxAttempts int

	// Sleep is swappable for tests. Defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Input carries the material for one insight request.
type Input struct {
	PromptSlug string
	Repo       core.Repo
	Period     core.Period
	Author     string
	Bucket     string
	Question   string

	// Payload is marshaled to JSON and handed to the prompt as {{input}}.
	Payload any
}

// Analyze renders the prompt, calls the driver and parses the structured
// report. Rate limited and transient provider failures are retried with
// exponential backoff up to the attempt ceiling; auth failures are not.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*AnalysisReport, error) {
	raw, cached, err := a.complete(ctx, in, true)
	if err != nil {
		return nil, err
	}

	report, err := parseReport(raw)
	if err != nil {
		return nil, err
	}
	report.Model = a.model()
	report.Cached = cached
	return report, nil
}

// Ask answers a free-form question about the payload. The response is
// plain text and is never cached because questions vary.
func (a *Analyzer) Ask(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.Question) == "" {
		return "", fmt.Errorf("question is required")
	}
	in.PromptSlug = "ask"
	raw, _, err := a.complete(ctx, in, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (a *Analyzer) complete(ctx context.Context, in Input, useCache bool) (string, bool, error) {
	if a == nil || a.Driver == nil {
		return "", false, fmt.Errorf("insight driver not configured")
	}
	if a.Prompts == nil {
		return "", false, fmt.Errorf("prompt registry not configured")
	}

	def, err := a.Prompts.Get(in.PromptSlug)
	if err != nil {
		return "", false, err
	}

	payload, err := json.Marshal(in.Payload)
	if err != nil {
		return "", false, fmt.Errorf("encode metrics payload: %w", err)
	}

	periodKey := periodKey(in.Period)
	if useCache && a.Cache != nil {
		entry, err := a.Cache.GetInsightCache(ctx, in.Repo.Slug(), in.PromptSlug, a.model(), a.BaseURL, periodKey)
		if err == nil && entry != nil {
			return entry.ResponseJSON, true, nil
		}
	}

	system, user, err := def.Render(map[string]string{
		"input":    string(payload),
		"repo":     in.Repo.Slug(),
		"author":   valueOr(in.Author, "none"),
		"period":   periodKey,
		"bucket":   valueOr(in.Bucket, "weekly"),
		"question": in.Question,
	})
	if err != nil {
		return "", false, err
	}

	req := &driver.Request{
		Model: a.model(),
		Messages: []content.Message{
			content.Text("system", system),
			content.Text("user", user),
		},
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		PromptSlug:  in.PromptSlug,
	}
	if def.Config.JSONResponse && a.Driver.Capabilities().SupportsJSONMode {
		req.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
	}

	resp, err := a.completeWithRetry(ctx, req)
	if err != nil {
		return "", false, err
	}

	text := resp.Text()
	if useCache && a.Cache != nil && a.CacheTTL > 0 {
		_ = a.Cache.SetInsightCache(ctx, in.Repo.Slug(), in.PromptSlug, a.model(), a.BaseURL, periodKey, text, a.CacheTTL)
	}
	return text, false, nil
}

func (a *Analyzer) completeWithRetry(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var last error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := a.Driver.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, err
		}
		last = err
		if attempt == attempts-1 {
			break
		}
		delay := defaultBaseDelay << attempt
		if delay > defaultMaxDelay {
			delay = defaultMaxDelay
		}
		if err := a.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("insight request failed after %d attempts: %w", attempts, last)
}

// retryable reports whether a provider failure is worth another attempt.
// Rate limiting and server-side errors are; auth and request shape
// errors are not.
func retryable(err error) bool {
	var provider *driver.ProviderError
	if !errors.As(err, &provider) {
		// Transport-level failures surface as plain errors.
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if provider.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return provider.StatusCode >= http.StatusInternalServerError
}

func (a *Analyzer) sleep(ctx context.Context, d time.Duration) error {
	if a.Sleep != nil {
		return a.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Analyzer) model() string {
	if a != nil && strings.TrimSpace(a.Model) != "" {
		return a.Model
	}
	return defaultModel
}

func periodKey(p core.Period) string {
	return p.Start.UTC().Format("2006-01-02") + ":" + p.End.UTC().Format("2006-01-02")
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
