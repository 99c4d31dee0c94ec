package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/pkg/campaign"
)

// CreativeDirector turns a high-potential scored event into a strategic
// creative brief.
type CreativeDirector struct {
	chat   llm.Client
	prompt string
}

func NewCreativeDirector(chat llm.Client, prompt string) *CreativeDirector {
	return &CreativeDirector{chat: chat, prompt: prompt}
}

// Brief generates a creative brief for one scored event.
func (d *CreativeDirector) Brief(ctx context.Context, scored campaign.ScoredEvent) (campaign.CreativeBrief, error) {
	details, err := json.MarshalIndent(scored, "", "  ")
	if err != nil {
		return campaign.CreativeBrief{}, fmt.Errorf("marshal event: %w", err)
	}

	user := fmt.Sprintf("Here is the high-potential marketing opportunity. Develop the creative brief.\n\nEvent details:\n%s", details)

	var brief campaign.CreativeBrief
	if err := invokeJSON(ctx, d.chat, "director", d.prompt, user, creativeTemperature, &brief); err != nil {
		return campaign.CreativeBrief{}, fmt.Errorf("creative direction: %w", err)
	}
	if err := brief.Validate(); err != nil {
		return campaign.CreativeBrief{}, fmt.Errorf("model returned incomplete brief: %w", err)
	}

	return brief, nil
}
