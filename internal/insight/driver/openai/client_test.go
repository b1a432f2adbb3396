package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/insight/content"
	"github.com/devpulse/devpulse/internal/insight/driver"
)

func testRequest() *driver.Request {
	return &driver.Request{
		Model: "gpt-4o-mini",
		Messages: []content.Message{
			content.Text("system", "You are a test."),
			content.Text("user", "ping"),
		},
		ResponseFormat: &driver.ResponseFormat{Type: "json_object"},
	}
}

func TestCompleteSendsChatRequest(t *testing.T) {
	var captured map[string]any
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{
			"choices":[{"message":{"content":"pong"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test")
	resp, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, "pong", resp.Text())
	require.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 12, resp.Usage.TotalTokens)

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "gpt-4o-mini", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_object", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first, ok := messages[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "system", first["role"])
	require.Equal(t, "You are a test.", first["content"])
}

func TestCompleteReturnsProviderErrorOnFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test")
	_, err := client.Complete(context.Background(), testRequest())

	var provider *driver.ProviderError
	require.ErrorAs(t, err, &provider)
	require.Equal(t, http.StatusTooManyRequests, provider.StatusCode)
	require.Equal(t, "openai", provider.Provider)
	require.Contains(t, provider.Message, "rate limited")
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestCompleteRejectsEmptyModel(t *testing.T) {
	client := NewClient("", "sk-test")
	req := testRequest()
	req.Model = ""
	_, err := client.Complete(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk-test")
	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "choices")
}

func TestNewClientDefaultsBaseURL(t *testing.T) {
	client := NewClient("", "sk-test")
	require.Equal(t, defaultBaseURL, client.BaseURL)
}
