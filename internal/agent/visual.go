package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/pkg/campaign"
)

// VisualStrategist generates the text-to-image prompt for a campaign from
// its brief. Runs independently of the copywriter.
type VisualStrategist struct {
	chat   llm.Client
	prompt string
}

func NewVisualStrategist(chat llm.Client, prompt string) *VisualStrategist {
	return &VisualStrategist{chat: chat, prompt: prompt}
}

// Compose generates the image prompt for the target city.
func (v *VisualStrategist) Compose(ctx context.Context, brief campaign.CreativeBrief, city string) (campaign.ImagePrompt, error) {
	details, err := json.MarshalIndent(brief, "", "  ")
	if err != nil {
		return campaign.ImagePrompt{}, fmt.Errorf("marshal brief: %w", err)
	}

	user := fmt.Sprintf("Write the text-to-image prompt capturing this brief for the city of %s.\n\nCreative brief:\n%s", city, details)

	var prompt campaign.ImagePrompt
	if err := invokeJSON(ctx, v.chat, "visual", v.prompt, user, creativeTemperature, &prompt); err != nil {
		return campaign.ImagePrompt{}, fmt.Errorf("visual strategy: %w", err)
	}
	if prompt.Prompt == "" {
		return campaign.ImagePrompt{}, fmt.Errorf("model returned empty image prompt")
	}

	return prompt, nil
}
