package agent

import (
	"fmt"
	"os"

	"github.com/dyluth/hype/internal/config"
)

// Default system prompts. Any of these can be replaced per-agent via the
// prompts section of hype.yml.

const defaultScannerPrompt = `You are an event discovery assistant for a marketing team.
You will be given the plain text of a local news or events web page.
Extract every distinct upcoming local event, festival, opening, market, show, or
notable happening you can find.

Respond with a JSON object of this exact shape:
{"events": [{"event_title": "...", "event_url": "...", "description": "...", "date": "..."}]}

Rules:
- event_title is required; skip anything without a clear title.
- event_url may be empty if the text gives no link.
- description is one sentence; date is the date text as written, or empty.
- Ignore ads, navigation text, and national/international news.
- If no events are present, respond with {"events": []}.`

const defaultAnalyzerPrompt = `You are a trend analyst for a beverage marketing team covering %s.
You will be given a JSON list of local events, each with an "index" field.
Score each event's marketing potential from 0 to 10: how well a feel-good,
high-footfall, shareable-moment campaign could attach to it. Food, music,
community, and outdoor gatherings score high; transit notices, crime, and
weather warnings score low.

Respond with a JSON object of this exact shape:
{"analyzed_events": [{"index": 0, "summary": "...", "marketing_potential_score": 0, "reasoning": "..."}]}

Include every input event exactly once, keyed by its index.`

const defaultDirectorPrompt = `You are a Creative Director. You will be given one high-potential local
event opportunity. Develop a strategic creative brief positioning our beverage
brand as the natural companion to the event.

Respond with a JSON object of this exact shape:
{"marketing_angle": "...", "target_emotion": "...", "key_message": "...", "target_audience": "...", "tone": "..."}

Keep the angle concrete and tied to the specific event, not generic.`

const defaultCopywriterPrompt = `You are a Copywriter. You will be given a creative brief and a target city.
Generate campaign copy that strictly follows the brief.

Respond with a JSON object of this exact shape:
{"slogan": "...", "social_media_post": "...", "web_banner_copy": "..."}

The slogan is short and punchy. The social post is ready to publish and
includes hashtags. The banner copy is one or two sentences.`

const defaultVisualPrompt = `You are a Visual Strategist. You will be given a creative brief and a target
city. Write one detailed text-to-image prompt that captures the brief:
subject, setting, lighting, mood, composition, style keywords.

Respond with a JSON object of this exact shape:
{"image_prompt": "..."}`

const defaultMarkdownPrompt = `You are a Markdown Writer. You will be given a JSON array of completed
campaign packages. Produce a single well-formatted Markdown document.
Each campaign gets its own section headed by the event title, with the
campaign image (when present) directly under the heading, followed by the
brief, the slogan, the social post, and the banner copy.
Respond with the raw Markdown only, no code fences around the document.`

// Prompts holds the resolved system prompt for each agent.
type Prompts struct {
	Scanner    string
	Analyzer   string
	Director   string
	Copywriter string
	Visual     string
	Markdown   string
}

// LoadPrompts resolves the prompt set: embedded defaults, overridden by any
// files named in hype.yml.
func LoadPrompts(cfg config.PromptsConfig) (*Prompts, error) {
	p := &Prompts{
		Scanner:    defaultScannerPrompt,
		Analyzer:   defaultAnalyzerPrompt,
		Director:   defaultDirectorPrompt,
		Copywriter: defaultCopywriterPrompt,
		Visual:     defaultVisualPrompt,
		Markdown:   defaultMarkdownPrompt,
	}

	overrides := []struct {
		path string
		dst  *string
	}{
		{cfg.Scanner, &p.Scanner},
		{cfg.Analyzer, &p.Analyzer},
		{cfg.Director, &p.Director},
		{cfg.Copywriter, &p.Copywriter},
		{cfg.Visual, &p.Visual},
		{cfg.Markdown, &p.Markdown},
	}
	for _, o := range overrides {
		if o.path == "" {
			continue
		}
		data, err := os.ReadFile(o.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt override: %w", err)
		}
		*o.dst = string(data)
	}

	return p, nil
}
