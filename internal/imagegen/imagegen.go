// Package imagegen generates campaign hero images via an OpenAI-compatible
// images API and saves them under the configured images directory.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyluth/hype/internal/config"
	"github.com/google/uuid"
)

// Generator produces image bytes from a text prompt.
// Tests substitute a stub; production uses OpenAIGenerator.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// OpenAIGenerator implements Generator against /images/generations.
type OpenAIGenerator struct {
	baseURL string
	model   string
	size    string
	apiKey  string
	http    *http.Client
}

// NewOpenAIGenerator builds a generator from the image and llm sections of
// hype.yml. Image generation shares the llm base URL and API key.
func NewOpenAIGenerator(llmCfg config.LLMConfig, imgCfg config.ImageConfig, apiKey string) *OpenAIGenerator {
	timeout := time.Duration(llmCfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(llmCfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIGenerator{
		baseURL: baseURL,
		model:   imgCfg.Model,
		size:    imgCfg.Size,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate requests a single image for the prompt and returns the decoded
// bytes. The API is asked for base64 output so no second fetch is needed.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image prompt cannot be empty")
	}

	payload, err := json.Marshal(imageRequest{
		Model:          g.model,
		Prompt:         prompt,
		N:              1,
		Size:           g.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API returned HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("image API returned no image data")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	return imageBytes, nil
}

// Save writes image bytes to a uniquely named PNG under dir.
// The filename combines a timestamp and a UUID fragment so repeated runs over
// the same event never clobber each other's files.
func Save(dir string, imageBytes []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	name := fmt.Sprintf("campaign_%s_%s.png",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, imageBytes, 0644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	return path, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
