package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dyluth/hype/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points an OpenAIClient at a local test server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAIClient(config.LLMConfig{
		BaseURL:        srv.URL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	}, "test-key")
}

func TestChat_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq ChatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	})

	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model, "model should default from config")
	assert.InDelta(t, 0.7, gotReq.Temperature, 0.001)
}

func TestChat_RequiresMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should be sent")
	})

	_, err := client.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
}

func TestChat_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestChat_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChat_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Chat(ctx, ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "https://api.openai.com/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1"},
		{"localhost:8080/v1", "http://localhost:8080/v1"},
		{" http://127.0.0.1:11434/v1 ", "http://127.0.0.1:11434/v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBaseURL(tt.in))
	}
}
