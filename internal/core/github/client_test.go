package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	now := time.Unix(1_700_000_000, 0).UTC()
	return func() time.Time { return now }
}

func recordingSleep(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestRateLimitedRequestRetriesAfterReset(t *testing.T) {
	clock := fixedClock()
	reset := clock().Add(2 * time.Second)

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"full_name":"octo/hello","private":false}`)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := &Client{
		BaseURL: server.URL,
		Clock:   clock,
		Sleep:   recordingSleep(&sleeps),
	}

	body, err := client.getRaw(context.Background(), "/repos/octo/hello", nil)
	require.NoError(t, err)
	require.Contains(t, string(body), "octo/hello")
	require.Equal(t, 2, calls)
	require.Len(t, sleeps, 1)
	require.Equal(t, 2*time.Second, sleeps[0])
}

func TestRateLimitWithoutResetHeaderBacksOff(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := &Client{BaseURL: server.URL, Clock: fixedClock(), Sleep: recordingSleep(&sleeps)}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello", nil)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)
}

func TestForbiddenWithExhaustedQuotaIsRateLimited(t *testing.T) {
	clock := fixedClock()
	reset := clock().Add(time.Second)

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := &Client{BaseURL: server.URL, Clock: clock, Sleep: recordingSleep(&sleeps)}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello/commits", nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, sleeps, 1)
}

func TestAuthErrorFailsFast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := &Client{BaseURL: server.URL, Clock: fixedClock(), Sleep: recordingSleep(&sleeps)}

	_, err := client.getRaw(context.Background(), "/user", nil)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	require.Equal(t, "Bad credentials", authErr.Message)
	require.Equal(t, 1, calls)
	require.Empty(t, sleeps)
}

func TestForbiddenWithoutQuotaHeadersIsAuthError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"Resource not accessible"}`)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: fixedClock(), Sleep: recordingSleep(&[]time.Duration{})}

	_, err := client.getRaw(context.Background(), "/repos/octo/private", nil)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, 1, calls)
}

func TestTransientErrorsEventuallySucceed(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	var sleeps []time.Duration
	client := &Client{BaseURL: server.URL, Clock: fixedClock(), Sleep: recordingSleep(&sleeps)}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello/issues", nil)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeps)
}

func TestRetriesExhaustedStopsAtCeiling(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &Client{
		BaseURL: server.URL,
		Retry:   RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second},
		Clock:   fixedClock(),
		Sleep:   recordingSleep(&[]time.Duration{}),
	}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello", nil)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.Equal(t, 3, calls)

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	require.Equal(t, http.StatusInternalServerError, transient.StatusCode)
}

func TestRateLimitExhaustionWrapsRateLimitError(t *testing.T) {
	clock := fixedClock()
	reset := clock().Add(time.Second)

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: clock, Sleep: recordingSleep(&[]time.Duration{})}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello", nil)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, reset, rateErr.Reset)
	require.Equal(t, 3, calls)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: fixedClock(), Sleep: recordingSleep(&[]time.Duration{})}

	_, err := client.getRaw(context.Background(), "/repos/octo/missing", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, 1, calls)
}

func TestRateLimitDelayBounds(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	require.Equal(t, time.Duration(0), rateLimitDelay(time.Time{}, now, time.Minute))
	require.Equal(t, time.Duration(0), rateLimitDelay(now.Add(-time.Minute), now, time.Minute))

	for _, window := range []time.Duration{time.Second, 5 * time.Second, 45 * time.Second} {
		delay := rateLimitDelay(now.Add(window), now, time.Minute)
		require.GreaterOrEqual(t, delay, time.Duration(0))
		require.LessOrEqual(t, delay, window)
	}

	// The policy ceiling wins over a distant reset.
	require.Equal(t, 30*time.Second, rateLimitDelay(now.Add(time.Hour), now, 30*time.Second))
}

func TestBackoffDelayCapped(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}

	require.Equal(t, 2*time.Second, backoffDelay(policy, 0))
	require.Equal(t, 4*time.Second, backoffDelay(policy, 1))
	require.Equal(t, 8*time.Second, backoffDelay(policy, 2))
	require.Equal(t, 10*time.Second, backoffDelay(policy, 3))
	require.Equal(t, 10*time.Second, backoffDelay(policy, 10))
}

func TestSleepAbortsOnContextCancel(t *testing.T) {
	client := &Client{Clock: fixedClock()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLastRateLimitTracksHeaders(t *testing.T) {
	clock := fixedClock()
	reset := clock().Add(10 * time.Minute)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "41")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client := &Client{BaseURL: server.URL, Clock: clock}

	_, err := client.getRaw(context.Background(), "/rate_limit", nil)
	require.NoError(t, err)

	remaining, gotReset, ok := client.LastRateLimit()
	require.True(t, ok)
	require.Equal(t, 41, remaining)
	require.Equal(t, reset, gotReset)
}

func TestTransportErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := &Client{
		BaseURL: server.URL,
		Retry:   RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: time.Second},
		Clock:   fixedClock(),
		Sleep:   recordingSleep(&[]time.Duration{}),
	}

	_, err := client.getRaw(context.Background(), "/repos/octo/hello", nil)
	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	require.Error(t, errors.Unwrap(transient))
}
