// Package agent implements the model-backed pipeline stages: trend analysis,
// creative direction, copywriting, visual strategy, and markdown rendering.
// Each agent is one templated system prompt plus one chat completion call
// returning structured JSON.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/internal/metrics"
)

// creativeTemperature is used by the stages that benefit from variation
// (director, copywriter, visual strategist). The analyzer deliberately runs
// at the configured default, which is 0 unless overridden.
const creativeTemperature = 0.7

// invokeJSON performs one structured-output chat call and unmarshals the
// reply into out. Models occasionally wrap JSON in a markdown fence even
// when asked not to, so fences are stripped before parsing.
func invokeJSON(ctx context.Context, chat llm.Client, agentName, system, user string, temperature float32, out any) error {
	resp, err := chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    temperature,
		ResponseFormat: llm.JSONObjectFormat,
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues(agentName, "error").Inc()
		return err
	}
	metrics.LLMRequests.WithLabelValues(agentName, "ok").Inc()

	content := stripFences(resp.Content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}
	return nil
}

// stripFences removes a surrounding ```json ... ``` fence if present.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
