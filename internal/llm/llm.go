// Package llm provides the chat completions client shared by every hype
// agent. It speaks the OpenAI-compatible /chat/completions wire format so it
// works against the hosted API or any local drop-in server.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dyluth/hype/internal/config"
)

// Message is a single chat message in OpenAI wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for a chat completion call.
type ChatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	Temperature    float32   `json:"temperature,omitempty"`
	MaxTokens      int       `json:"max_tokens,omitempty"`
	ResponseFormat any       `json:"response_format,omitempty"`
}

// ChatResponse carries the assistant's reply content.
type ChatResponse struct {
	Content      string
	FinishReason string
}

// Client is the interface agents use to talk to the model.
// Tests substitute a stub; production uses OpenAIClient.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// JSONObjectFormat is the response_format value that forces the model to
// emit a single JSON object. Agents that need structured output set this on
// their requests.
var JSONObjectFormat = map[string]string{"type": "json_object"}

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float32
	http        *http.Client
}

// NewOpenAIClient builds a client from the llm section of hype.yml plus the
// API key from the environment.
func NewOpenAIClient(cfg config.LLMConfig, apiKey string) *OpenAIClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIClient{
		baseURL:     normalizeBaseURL(cfg.BaseURL),
		model:       cfg.Model,
		apiKey:      apiKey,
		temperature: cfg.Temperature,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// Chat sends a chat completion request and returns the assistant reply.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if c == nil {
		return ChatResponse{}, fmt.Errorf("llm client is nil")
	}
	if len(req.Messages) == 0 {
		return ChatResponse{}, fmt.Errorf("llm chat requires at least one message")
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if req.Temperature == 0 {
		req.Temperature = c.temperature
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ChatResponse{}, fmt.Errorf("llm returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ChatResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("llm returned no choices")
	}

	return ChatResponse{
		Content:      parsed.Choices[0].Message.Content,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

func normalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "https://api.openai.com/v1"
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
