// Package pipeline implements the hype orchestrator: one scheduled run
// sequences scan → analyze → threshold filter → creative generation →
// image creation → persistence for every qualifying event, with per-event
// failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dyluth/hype/internal/agent"
	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/imagegen"
	"github.com/dyluth/hype/internal/logging"
	"github.com/dyluth/hype/internal/metrics"
	"github.com/dyluth/hype/internal/scanner"
	"github.com/dyluth/hype/internal/store"
	"github.com/dyluth/hype/pkg/campaign"
	"github.com/google/uuid"
)

// Engine is the orchestrator. It owns no per-event state: every run is a
// fresh traversal, and the only cross-run memory lives in the Redis ledger
// (seen events) and the SQLite archive.
type Engine struct {
	cfg      *config.HypeConfig
	sources  []scanner.Source
	analyzer *agent.TrendAnalyzer
	director *agent.CreativeDirector
	writer   *agent.Copywriter
	visual   *agent.VisualStrategist
	markdown *agent.MarkdownWriter
	images   imagegen.Generator
	ledger   *store.Client
	archive  *archive.DB

	now func() time.Time // injectable for tests
}

// Deps bundles the collaborators the engine needs.
type Deps struct {
	Sources  []scanner.Source
	Analyzer *agent.TrendAnalyzer
	Director *agent.CreativeDirector
	Writer   *agent.Copywriter
	Visual   *agent.VisualStrategist
	Markdown *agent.MarkdownWriter
	Images   imagegen.Generator
	Ledger   *store.Client
	Archive  *archive.DB
}

// NewEngine creates an orchestrator engine.
func NewEngine(cfg *config.HypeConfig, deps Deps) *Engine {
	return &Engine{
		cfg:      cfg,
		sources:  deps.Sources,
		analyzer: deps.Analyzer,
		director: deps.Director,
		writer:   deps.Writer,
		visual:   deps.Visual,
		markdown: deps.Markdown,
		images:   deps.Images,
		ledger:   deps.Ledger,
		archive:  deps.Archive,
		now:      time.Now,
	}
}

// RunOnce executes one complete pipeline run. Per-source and per-event
// failures are logged and isolated; RunOnce only returns an error when the
// run as a whole could not proceed (e.g. the ledger is unreachable at
// start).
func (e *Engine) RunOnce(ctx context.Context) (*campaign.RunRecord, error) {
	runID := uuid.New().String()
	started := e.now()

	log.Printf("[Pipeline] ================================================================")
	log.Printf("[Pipeline] Starting full marketing pipeline run %s", runID)
	log.Printf("[Pipeline] ================================================================")

	record := &campaign.RunRecord{
		RunID:       runID,
		StartedAtMs: started.UnixMilli(),
		Status:      campaign.RunStatusRunning,
	}
	if err := e.ledger.RecordRun(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	e.publishEvent(ctx, store.PipelineEvent{Stage: "run_started", RunID: runID})

	// Stage 1 & 2: scan and analyze all sources
	qualified := e.scanAndAnalyze(ctx, record)
	if ctx.Err() != nil {
		return e.sealFailed(record, ctx.Err())
	}

	// Stage 3 & 4: creative generation and packaging per qualifying event
	var packages []campaign.CampaignPackage
	for _, scored := range qualified {
		if ctx.Err() != nil {
			record.CampaignsProduced = len(packages)
			return e.sealFailed(record, ctx.Err())
		}
		pkg, err := e.generateCampaign(ctx, runID, scored)
		if err != nil {
			log.Printf("[Pipeline] Campaign generation failed for '%s': %v", scored.Event.Title, err)
			logging.Event("pipeline", "campaign_failed", map[string]interface{}{
				"run_id": runID,
				"title":  scored.Event.Title,
				"error":  err.Error(),
			})
			continue
		}

		if err := e.persistCampaign(ctx, pkg); err != nil {
			log.Printf("[Pipeline] Failed to persist campaign for '%s': %v", scored.Event.Title, err)
			continue
		}

		packages = append(packages, *pkg)
		metrics.CampaignsProduced.WithLabelValues(pkg.SourceEvent.Event.Location).Inc()
		log.Printf("[Pipeline] Completed campaign package for '%s'", scored.Event.Title)
	}
	record.CampaignsProduced = len(packages)

	// Stage 5: render the daily markdown digest
	if err := e.writeDigest(ctx, runID, packages); err != nil {
		log.Printf("[Pipeline] Failed to write markdown digest: %v", err)
	}

	// Seal the run record
	finished := e.now()
	record.FinishedAtMs = finished.UnixMilli()
	record.Status = campaign.RunStatusComplete
	if err := e.ledger.RecordRun(ctx, record); err != nil {
		log.Printf("[Pipeline] Failed to record run completion: %v", err)
	}
	e.publishEvent(ctx, store.PipelineEvent{
		Stage:  "run_finished",
		RunID:  runID,
		Detail: fmt.Sprintf("%d campaigns from %d scanned events", record.CampaignsProduced, record.EventsScanned),
	})

	metrics.RunsTotal.WithLabelValues(string(record.Status)).Inc()
	metrics.RunDuration.Observe(finished.Sub(started).Seconds())
	metrics.LastRunTimestamp.Set(float64(finished.Unix()))

	log.Printf("[Pipeline] Run %s finished: scanned=%d qualified=%d produced=%d",
		runID, record.EventsScanned, record.EventsQualified, record.CampaignsProduced)

	return record, nil
}

// sealFailed records an aborted run. The write uses a fresh context so a
// cancelled run still leaves its failed record in the ledger.
func (e *Engine) sealFailed(record *campaign.RunRecord, cause error) (*campaign.RunRecord, error) {
	record.FinishedAtMs = e.now().UnixMilli()
	record.Status = campaign.RunStatusFailed

	sealCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.ledger.RecordRun(sealCtx, record); err != nil {
		log.Printf("[Pipeline] Failed to record run failure: %v", err)
	}
	metrics.RunsTotal.WithLabelValues(string(record.Status)).Inc()

	log.Printf("[Pipeline] Run %s aborted: %v", record.RunID, cause)
	return record, fmt.Errorf("run aborted: %w", cause)
}

// scanAndAnalyze walks every configured source, scores its events, and
// returns the deduplicated events at or above the threshold. A failing
// source is skipped; a failing analyzer batch drops only that source's
// events.
func (e *Engine) scanAndAnalyze(ctx context.Context, record *campaign.RunRecord) []campaign.ScoredEvent {
	var qualified []campaign.ScoredEvent

	for _, src := range e.sources {
		log.Printf("[Pipeline] Scanning source '%s' (%s)", src.Name(), src.City())

		events, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("[Pipeline] Source '%s' failed, skipping: %v", src.Name(), err)
			metrics.SourceFailures.WithLabelValues(src.Name()).Inc()
			continue
		}
		record.EventsScanned += len(events)
		metrics.EventsScanned.WithLabelValues(src.Name()).Add(float64(len(events)))

		if len(events) == 0 {
			log.Printf("[Pipeline] No events found from source '%s'", src.Name())
			continue
		}

		scored, err := e.analyzer.Analyze(ctx, src.City(), events)
		if err != nil {
			log.Printf("[Pipeline] Analysis failed for source '%s', skipping: %v", src.Name(), err)
			continue
		}

		for _, s := range scored {
			if s.Score < e.cfg.Threshold {
				continue
			}

			if e.cfg.DedupEnabled() {
				seen, err := e.ledger.IsEventSeen(ctx, s.Event.Source, s.Event.Title)
				if err != nil {
					// Ledger hiccups must not cost us a campaign; treat as unseen
					log.Printf("[Pipeline] Seen-check failed for '%s': %v", s.Event.Title, err)
				}
				if seen {
					log.Printf("[Pipeline] Skipping already-campaigned event '%s'", s.Event.Title)
					continue
				}
			}

			qualified = append(qualified, s)
			e.publishEvent(ctx, store.PipelineEvent{
				Stage:      "event_qualified",
				EventTitle: s.Event.Title,
				City:       s.Event.Location,
				Detail:     fmt.Sprintf("score %d", s.Score),
			})
		}
	}

	record.EventsQualified = len(qualified)
	if len(qualified) == 0 {
		log.Printf("[Pipeline] No high-potential events found across all sources")
	} else {
		log.Printf("[Pipeline] Found %d high-potential events", len(qualified))
	}
	return qualified
}

// generateCampaign runs the creative stages for one qualifying event.
// The copywriter and visual strategist run concurrently; both consume the
// brief and share no state. Image failure degrades the package rather than
// failing it.
func (e *Engine) generateCampaign(ctx context.Context, runID string, scored campaign.ScoredEvent) (*campaign.CampaignPackage, error) {
	city := scored.Event.Location
	log.Printf("[Pipeline] Generating campaign for '%s' in %s", scored.Event.Title, city)

	brief, err := e.director.Brief(ctx, scored)
	if err != nil {
		return nil, fmt.Errorf("creative brief: %w", err)
	}

	// Parallel creative work: copy and visuals are independent
	var (
		wg        sync.WaitGroup
		assets    campaign.TextAssets
		assetsErr error
		prompt    campaign.ImagePrompt
		promptErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		assets, assetsErr = e.writer.Write(ctx, brief, city)
	}()
	go func() {
		defer wg.Done()
		prompt, promptErr = e.visual.Compose(ctx, brief, city)
	}()
	wg.Wait()

	if assetsErr != nil {
		return nil, fmt.Errorf("copywriting: %w", assetsErr)
	}

	visual := e.createVisual(ctx, prompt, promptErr)

	pkg := &campaign.CampaignPackage{
		ID:          uuid.New().String(),
		RunID:       runID,
		CreatedAtMs: e.now().UnixMilli(),
		SourceEvent: scored,
		Brief:       brief,
		TextAssets:  assets,
		Visual:      visual,
	}
	return pkg, nil
}

// createVisual turns the visual strategist's output into a generated image
// file, recording failure states instead of propagating them: the package
// ships degraded rather than not at all.
func (e *Engine) createVisual(ctx context.Context, prompt campaign.ImagePrompt, promptErr error) campaign.VisualAsset {
	if promptErr != nil {
		log.Printf("[Pipeline] Visual strategy failed, skipping image: %v", promptErr)
		return campaign.VisualAsset{Status: campaign.AssetStatusSkipped, Error: promptErr.Error()}
	}

	imageBytes, err := e.images.Generate(ctx, prompt.Prompt)
	if err != nil {
		log.Printf("[Pipeline] Image generation failed: %v", err)
		metrics.ImageFailures.Inc()
		return campaign.VisualAsset{Status: campaign.AssetStatusFailed, Error: err.Error()}
	}

	path, err := imagegen.Save(e.cfg.Output.ImagesDir, imageBytes)
	if err != nil {
		log.Printf("[Pipeline] Failed to save image: %v", err)
		metrics.ImageFailures.Inc()
		return campaign.VisualAsset{Status: campaign.AssetStatusFailed, Error: err.Error()}
	}

	return campaign.VisualAsset{Status: campaign.AssetStatusSuccess, Path: path}
}

// publishEvent publishes a ledger progress event, logging rather than
// propagating failures.
func (e *Engine) publishEvent(ctx context.Context, ev store.PipelineEvent) {
	if ev.TimestampMs == 0 {
		ev.TimestampMs = e.now().UnixMilli()
	}
	if err := e.ledger.PublishEvent(ctx, ev); err != nil {
		log.Printf("[Pipeline] Failed to publish event %s: %v", ev.Stage, err)
	}
}
