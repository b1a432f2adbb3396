package github

import (
	"fmt"
	"time"
)

// AuthError reports a credential problem (401, or 403 that is not quota
// exhaustion). Never retried.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github auth failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github auth failed (%d)", e.StatusCode)
}

// RateLimitError reports quota exhaustion (429, or 403 with a zeroed
// X-RateLimit-Remaining header). Reset is the server-reported window end.
type RateLimitError struct {
	StatusCode int
	Reset      time.Time
	Remaining  int
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return fmt.Sprintf("github rate limited (%d)", e.StatusCode)
	}
	return fmt.Sprintf("github rate limited (%d), resets at %s", e.StatusCode, e.Reset.Format(time.RFC3339))
}

// TransientError reports a server error or transport failure worth retrying.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github request failed: %v", e.Err)
	}
	return fmt.Sprintf("github server error (%d)", e.StatusCode)
}

func (e *TransientError) Unwrap() error { return e.Err }

// APIError reports a non-retryable API failure such as a 404 or 422.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github api error (%d)", e.StatusCode)
}

// RetriesExhaustedError reports that the retry ceiling was reached. Last is
// the final classified error and is reachable through errors.As.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("github request failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }
