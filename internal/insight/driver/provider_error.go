package driver

import "fmt"

// ProviderError is returned when an insight provider answers with a non-2xx
// status. The analyzer inspects StatusCode to decide between retrying and
// degrading to a fallback report.
//
// Drivers populate RawResponse with the provider body bytes; it must never
// contain API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}
