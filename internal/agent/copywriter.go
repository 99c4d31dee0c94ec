package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/pkg/campaign"
)

// Copywriter generates the text assets for a campaign from its brief.
// It has no ordering dependency on the visual strategist; the pipeline runs
// the two concurrently.
type Copywriter struct {
	chat   llm.Client
	prompt string
}

func NewCopywriter(chat llm.Client, prompt string) *Copywriter {
	return &Copywriter{chat: chat, prompt: prompt}
}

// Write generates slogan, social post, and banner copy for the target city.
func (c *Copywriter) Write(ctx context.Context, brief campaign.CreativeBrief, city string) (campaign.TextAssets, error) {
	details, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return campaign.TextAssets{}, fmt.Errorf("marshal brief: %w", err)
	}

	user := fmt.Sprintf("Generate copy for the city of %s. Strictly adhere to this creative brief.\n\nCreative brief:\n%s", city, details)

	var assets campaign.TextAssets
	if err := invokeJSON(ctx, c.chat, "copywriter", c.prompt, user, creativeTemperature, &assets); err != nil {
		return campaign.TextAssets{}, fmt.Errorf("copywriting: %w", err)
	}

	return assets, nil
}
