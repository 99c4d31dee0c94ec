package campaign

import (
	"fmt"

	"github.com/google/uuid"
)

// Event is a candidate local event discovered by the scanner.
// Events are read-only downstream of the scanner.
type Event struct {
	Source      string `json:"source"`                // Name of the configured source that produced this event
	Title       string `json:"title"`                 // Event headline
	URL         string `json:"url,omitempty"`         // Link to the event page, when the source exposes one
	Description string `json:"description,omitempty"` // Short description extracted by the scanner
	Date        string `json:"date,omitempty"`        // Free-form date text as published by the source
	Location    string `json:"location"`              // City the source is configured for
	RawText     string `json:"raw_text,omitempty"`    // Snippet of source text the event was extracted from
}

// ScoredEvent is an Event that has been through trend analysis.
// The embedded Event is carried unmodified.
type ScoredEvent struct {
	Event     Event  `json:"event"`
	Score     int    `json:"marketing_potential_score"` // Bounded 0..MaxScore
	Summary   string `json:"summary,omitempty"`         // Analyzer's one-paragraph summary
	Reasoning string `json:"reasoning,omitempty"`       // Why the analyzer assigned this score
}

// Score bounds enforced by the analyzer.
const (
	MinScore = 0
	MaxScore = 10
)

// CreativeBrief is the strategic direction document produced by the
// creative director for a single high-potential event.
type CreativeBrief struct {
	Angle      string `json:"marketing_angle"`
	Emotion    string `json:"target_emotion"`
	KeyMessage string `json:"key_message"`
	Audience   string `json:"target_audience"`
	Tone       string `json:"tone,omitempty"`
}

// TextAssets holds the copy generated from a creative brief.
type TextAssets struct {
	Slogan     string `json:"slogan"`
	SocialPost string `json:"social_media_post"`
	BannerCopy string `json:"web_banner_copy"`
}

// ImagePrompt is the text-to-image prompt produced by the visual strategist.
type ImagePrompt struct {
	Prompt string `json:"image_prompt"`
}

// AssetStatus describes the outcome of image generation for a campaign.
type AssetStatus string

const (
	// AssetStatusSuccess means an image was generated and saved to disk
	AssetStatusSuccess AssetStatus = "success"

	// AssetStatusFailed means image generation was attempted but failed;
	// the campaign package is still produced without a visual
	AssetStatusFailed AssetStatus = "failed"

	// AssetStatusSkipped means no image prompt was available so no
	// generation was attempted
	AssetStatusSkipped AssetStatus = "skipped"
)

// VisualAsset records where the generated campaign image landed, or why it
// didn't.
type VisualAsset struct {
	Status AssetStatus `json:"status"`
	Path   string      `json:"path,omitempty"`  // File path of the saved image when Status is success
	Error  string      `json:"error,omitempty"` // Failure detail when Status is failed
}

// CampaignPackage aggregates every asset produced for one qualifying
// event. Packages are immutable once persisted: each pipeline run writes new
// files under fresh IDs and never rewrites an existing package.
type CampaignPackage struct {
	ID          string        `json:"id"`     // UUID - unique identifier for this package
	RunID       string        `json:"run_id"` // UUID of the pipeline run that produced it
	CreatedAtMs int64         `json:"created_at_ms"`
	SourceEvent ScoredEvent   `json:"source_event"` // The analyzer output, unmodified
	Brief       CreativeBrief `json:"creative_brief"`
	TextAssets  TextAssets    `json:"text_assets"`
	Visual      VisualAsset   `json:"visual_assets_status"`
}

// RunStatus describes the lifecycle state of a pipeline run.
type RunStatus string

const (
	// RunStatusRunning means the run is in progress
	RunStatusRunning RunStatus = "running"

	// RunStatusComplete means the run finished, possibly with per-event
	// failures but without aborting
	RunStatusComplete RunStatus = "complete"

	// RunStatusFailed means the run aborted before completing all stages
	RunStatusFailed RunStatus = "failed"
)

// RunRecord summarises one scheduled pipeline run.
type RunRecord struct {
	RunID             string    `json:"run_id"`
	StartedAtMs       int64     `json:"started_at_ms"`
	FinishedAtMs      int64     `json:"finished_at_ms,omitempty"`
	EventsScanned     int       `json:"events_scanned"`
	EventsQualified   int       `json:"events_qualified"`
	CampaignsProduced int       `json:"campaigns_produced"`
	Status            RunStatus `json:"status"`
}

// Validate checks if the Event has the fields every downstream stage relies
// on. Returns an error if any validation fails.
func (e *Event) Validate() error {
	if e.Source == "" {
		return fmt.Errorf("event source cannot be empty")
	}
	if e.Title == "" {
		return fmt.Errorf("event title cannot be empty")
	}
	if e.Location == "" {
		return fmt.Errorf("event location cannot be empty")
	}
	return nil
}

// Validate checks the embedded event and that the score is within bounds.
func (s *ScoredEvent) Validate() error {
	if err := s.Event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}
	if s.Score < MinScore || s.Score > MaxScore {
		return fmt.Errorf("invalid score: must be %d..%d, got %d", MinScore, MaxScore, s.Score)
	}
	return nil
}

// Validate checks that the brief carries the strategic fields the creative
// stages consume.
func (b *CreativeBrief) Validate() error {
	if b.Angle == "" {
		return fmt.Errorf("creative brief angle cannot be empty")
	}
	if b.KeyMessage == "" {
		return fmt.Errorf("creative brief key message cannot be empty")
	}
	return nil
}

// Validate checks if the AssetStatus is a valid enum value.
func (as AssetStatus) Validate() error {
	switch as {
	case AssetStatusSuccess, AssetStatusFailed, AssetStatusSkipped:
		return nil
	default:
		return fmt.Errorf("unknown asset status: %q", as)
	}
}

// Validate checks internal consistency of the visual asset record.
func (v *VisualAsset) Validate() error {
	if err := v.Status.Validate(); err != nil {
		return err
	}
	if v.Status == AssetStatusSuccess && v.Path == "" {
		return fmt.Errorf("successful visual asset must have a path")
	}
	return nil
}

// Validate checks if the CampaignPackage has valid field values.
func (p *CampaignPackage) Validate() error {
	if !isValidUUID(p.ID) {
		return fmt.Errorf("invalid package ID: not a valid UUID")
	}
	if !isValidUUID(p.RunID) {
		return fmt.Errorf("invalid run ID: not a valid UUID")
	}
	if err := p.SourceEvent.Validate(); err != nil {
		return fmt.Errorf("invalid source event: %w", err)
	}
	if err := p.Brief.Validate(); err != nil {
		return fmt.Errorf("invalid creative brief: %w", err)
	}
	if err := p.Visual.Validate(); err != nil {
		return fmt.Errorf("invalid visual asset: %w", err)
	}
	return nil
}

// Validate checks if the RunStatus is a valid enum value.
func (rs RunStatus) Validate() error {
	switch rs {
	case RunStatusRunning, RunStatusComplete, RunStatusFailed:
		return nil
	default:
		return fmt.Errorf("unknown run status: %q", rs)
	}
}

// Validate checks if the RunRecord has valid field values.
func (r *RunRecord) Validate() error {
	if !isValidUUID(r.RunID) {
		return fmt.Errorf("invalid run ID: not a valid UUID")
	}
	if err := r.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}
	if r.EventsScanned < 0 || r.EventsQualified < 0 || r.CampaignsProduced < 0 {
		return fmt.Errorf("run counters cannot be negative")
	}
	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
