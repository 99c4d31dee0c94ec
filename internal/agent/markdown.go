package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/internal/metrics"
	"github.com/dyluth/hype/pkg/campaign"
)

// MarkdownWriter renders the day's completed campaign packages into a single
// markdown digest. Rendering is model-driven for prose quality, with a
// deterministic local template as fallback so a digest always exists.
type MarkdownWriter struct {
	chat   llm.Client
	prompt string
}

func NewMarkdownWriter(chat llm.Client, prompt string) *MarkdownWriter {
	return &MarkdownWriter{chat: chat, prompt: prompt}
}

// Render returns the markdown document for the given packages.
func (m *MarkdownWriter) Render(ctx context.Context, packages []campaign.CampaignPackage) (string, error) {
	if len(packages) == 0 {
		return "# Campaign Digest\n\nNo campaigns were produced in this run.\n", nil
	}

	details, err := json.MarshalIndent(packages, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal packages: %w", err)
	}

	resp, err := m.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: m.prompt},
			{Role: "user", Content: fmt.Sprintf("Campaign packages:\n%s", details)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues("markdown", "error").Inc()
		log.Printf("[Markdown] Model rendering failed, using fallback template: %v", err)
		return renderFallback(packages), nil
	}
	metrics.LLMRequests.WithLabelValues("markdown", "ok").Inc()

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return renderFallback(packages), nil
	}
	return content + "\n", nil
}

// renderFallback produces a plain but complete digest without a model call.
func renderFallback(packages []campaign.CampaignPackage) string {
	var b strings.Builder
	b.WriteString("# Campaign Digest\n")
	for _, p := range packages {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n", p.SourceEvent.Event.Title, p.SourceEvent.Event.Location)
		if p.Visual.Status == campaign.AssetStatusSuccess {
			fmt.Fprintf(&b, "![campaign image](%s)\n\n", p.Visual.Path)
		}
		fmt.Fprintf(&b, "**Score:** %d/10\n\n", p.SourceEvent.Score)
		fmt.Fprintf(&b, "**Angle:** %s\n\n", p.Brief.Angle)
		fmt.Fprintf(&b, "**Key message:** %s\n\n", p.Brief.KeyMessage)
		fmt.Fprintf(&b, "**Slogan:** %s\n\n", p.TextAssets.Slogan)
		fmt.Fprintf(&b, "**Social post:** %s\n\n", p.TextAssets.SocialPost)
		fmt.Fprintf(&b, "**Banner copy:** %s\n", p.TextAssets.BannerCopy)
	}
	return b.String()
}
