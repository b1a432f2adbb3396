package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/devpulse/devpulse/internal/core/engine"
)

const githubSource = "github"

// RetryPolicy bounds the fetch retry loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy mirrors the conservative defaults used for interactive
// dashboard renders: three attempts, doubling backoff, half-minute ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Client talks to the GitHub REST API with rate-limit aware retries.
// All fields are optional except Token for private repositories.
type Client struct {
	HTTP      *http.Client
	Limiter   *engine.RateLimiter
	BaseURL   string
	Token     string
	UserAgent string
	Retry     RetryPolicy
	Clock     func() time.Time
	Sleep     func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	lastRemaining int
	lastReset     time.Time
	haveRateInfo  bool
}

// LastRateLimit returns the most recently observed rate limit headers.
func (c *Client) LastRateLimit() (remaining int, reset time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRemaining, c.lastReset, c.haveRateInfo
}

// getRaw performs one rate-limited GET with retries and returns the body.
// A request either yields a complete payload or an error, never both.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c == nil {
		return nil, errors.New("github client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	policy := c.retry()
	base := c.baseURL()
	endpoint := base.Hostname()

	var last error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if c.Limiter != nil && endpoint != "" {
			allowed, wait, err := c.Limiter.Allow(ctx, endpoint)
			if err != nil {
				return nil, err
			}
			if !allowed {
				if err := c.sleep(ctx, boundDelay(wait, policy.MaxDelay)); err != nil {
					return nil, err
				}
			}
			if err := c.Limiter.Record(ctx, endpoint); err != nil {
				return nil, err
			}
		}

		body, err := c.dispatch(ctx, base, path, query)
		if err == nil {
			return body, nil
		}

		var authErr *AuthError
		var apiErr *APIError
		if errors.As(err, &authErr) || errors.As(err, &apiErr) {
			return nil, err
		}

		last = err
		if attempt == policy.MaxAttempts-1 {
			break
		}

		var rateErr *RateLimitError
		delay := backoffDelay(policy, attempt)
		if errors.As(err, &rateErr) {
			// Without a usable reset header the exponential delay stands;
			// retrying a rate-limited endpoint immediately just burns attempts.
			if resetDelay := rateLimitDelay(rateErr.Reset, c.now(), policy.MaxDelay); resetDelay > 0 {
				delay = resetDelay
			}
			if c.Limiter != nil && endpoint != "" {
				_ = c.Limiter.Record429(ctx, endpoint, delay)
			}
		}

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &RetriesExhaustedError{Attempts: policy.MaxAttempts, Last: last}
}

// dispatch performs a single HTTP exchange and classifies the outcome.
func (c *Client) dispatch(ctx context.Context, base *url.URL, path string, query url.Values) ([]byte, error) {
	reqURL := base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		reqURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	remaining, reset := c.recordRateHeaders(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransientError{Err: err}
		}
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: apiMessage(resp.Body)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{StatusCode: resp.StatusCode, Reset: reset, Remaining: remaining}
	case resp.StatusCode == http.StatusForbidden:
		// A 403 only means quota exhaustion when the headers say so.
		if remaining == 0 && !reset.IsZero() {
			return nil, &RateLimitError{StatusCode: resp.StatusCode, Reset: reset, Remaining: remaining}
		}
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: apiMessage(resp.Body)}
	case resp.StatusCode >= 500:
		return nil, &TransientError{StatusCode: resp.StatusCode}
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(resp.Body)}
	}
}

func (c *Client) recordRateHeaders(resp *http.Response) (remaining int, reset time.Time) {
	remaining = -1
	if raw := resp.Header.Get("X-RateLimit-Remaining"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			remaining = parsed
		}
	}
	if raw := resp.Header.Get("X-RateLimit-Reset"); raw != "" {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reset = time.Unix(epoch, 0).UTC()
		}
	}

	if remaining >= 0 || !reset.IsZero() {
		c.mu.Lock()
		c.lastRemaining = remaining
		c.lastReset = reset
		c.haveRateInfo = true
		c.mu.Unlock()
	}
	return remaining, reset
}

// rateLimitDelay computes how long to wait for a reset. The result is never
// negative and never exceeds the reset window or the policy ceiling.
func rateLimitDelay(reset, now time.Time, max time.Duration) time.Duration {
	if reset.IsZero() {
		return 0
	}
	delay := reset.Sub(now)
	if delay < 0 {
		return 0
	}
	return boundDelay(delay, max)
}

// backoffDelay doubles the base delay per attempt, capped at the ceiling.
func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := policy.BaseDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	for i := 0; i < attempt; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	return boundDelay(delay, policy.MaxDelay)
}

func boundDelay(delay, max time.Duration) time.Duration {
	if max > 0 && delay > max {
		return max
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
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

func (c *Client) retry() RetryPolicy {
	policy := c.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	return policy
}

func (c *Client) baseURL() *url.URL {
	if c != nil && c.BaseURL != "" {
		if parsed, err := url.Parse(c.BaseURL); err == nil {
			return parsed
		}
	}
	parsed, _ := url.Parse("https://api.github.com")
	return parsed
}

func (c *Client) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func apiMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
