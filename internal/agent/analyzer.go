package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/pkg/campaign"
)

// TrendAnalyzer scores each scanned event's marketing potential with one
// model call per city batch.
type TrendAnalyzer struct {
	chat   llm.Client
	prompt string
}

func NewTrendAnalyzer(chat llm.Client, prompt string) *TrendAnalyzer {
	return &TrendAnalyzer{chat: chat, prompt: prompt}
}

// indexedEvent is what the analyzer sends per event. The index lets the
// model's verdicts be matched back to the original Event structs, which must
// flow downstream unmodified.
type indexedEvent struct {
	Index       int    `json:"index"`
	Title       string `json:"event_title"`
	URL         string `json:"event_url,omitempty"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

type analyzerOutput struct {
	AnalyzedEvents []struct {
		Index     int    `json:"index"`
		Summary   string `json:"summary"`
		Score     int    `json:"marketing_potential_score"`
		Reasoning string `json:"reasoning"`
	} `json:"analyzed_events"`
}

// Analyze scores a batch of events from one city. The returned ScoredEvents
// embed the input events byte-for-byte; only the analysis fields are new.
// Scores outside 0..10 are clamped rather than rejected.
func (a *TrendAnalyzer) Analyze(ctx context.Context, city string, events []campaign.Event) ([]campaign.ScoredEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}

	indexed := make([]indexedEvent, len(events))
	for i, e := range events {
		indexed[i] = indexedEvent{
			Index:       i,
			Title:       e.Title,
			URL:         e.URL,
			Description: e.Description,
			Date:        e.Date,
		}
	}

	eventsJSON, err := json.MarshalIndent(indexed, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}

	user := fmt.Sprintf("Here are the candidate events for %s. Analyze each one.\n\n%s", city, eventsJSON)

	var out analyzerOutput
	if err := invokeJSON(ctx, a.chat, "analyzer", fmt.Sprintf(a.prompt, city), user, 0, &out); err != nil {
		return nil, fmt.Errorf("trend analysis: %w", err)
	}

	scored := make([]campaign.ScoredEvent, 0, len(out.AnalyzedEvents))
	for _, verdict := range out.AnalyzedEvents {
		if verdict.Index < 0 || verdict.Index >= len(events) {
			log.Printf("[Analyzer] Dropping verdict with out-of-range index %d", verdict.Index)
			continue
		}
		scored = append(scored, campaign.ScoredEvent{
			Event:     events[verdict.Index],
			Score:     clampScore(verdict.Score),
			Summary:   verdict.Summary,
			Reasoning: verdict.Reasoning,
		})
	}

	log.Printf("[Analyzer] Scored %d of %d events for %s", len(scored), len(events), city)
	return scored, nil
}

func clampScore(s int) int {
	if s < campaign.MinScore {
		return campaign.MinScore
	}
	if s > campaign.MaxScore {
		return campaign.MaxScore
	}
	return s
}
