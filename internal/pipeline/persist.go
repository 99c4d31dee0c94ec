package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dyluth/hype/internal/logging"
	"github.com/dyluth/hype/internal/store"
	"github.com/dyluth/hype/pkg/campaign"
)

// persistCampaign writes the campaign package everywhere it needs to live:
// a JSON file on disk, the SQLite archive, and the Redis ledger. The file
// is the artifact of record; ledger or archive failures are logged but do
// not undo the package.
func (e *Engine) persistCampaign(ctx context.Context, pkg *campaign.CampaignPackage) error {
	path, err := e.writePackageFile(pkg)
	if err != nil {
		return fmt.Errorf("failed to write campaign package: %w", err)
	}

	if err := e.archive.Insert(pkg, path); err != nil {
		log.Printf("[Pipeline] Failed to archive campaign %s: %v", pkg.ID, err)
	}
	if err := e.ledger.RecordCampaign(ctx, pkg); err != nil {
		log.Printf("[Pipeline] Failed to record campaign %s in ledger: %v", pkg.ID, err)
	}
	if e.cfg.DedupEnabled() {
		if err := e.ledger.MarkEventSeen(ctx, pkg.SourceEvent.Event.Source, pkg.SourceEvent.Event.Title); err != nil {
			log.Printf("[Pipeline] Failed to mark event seen: %v", err)
		}
	}

	logging.Event("pipeline", "campaign_persisted", map[string]interface{}{
		"run_id":      pkg.RunID,
		"campaign_id": pkg.ID,
		"title":       pkg.SourceEvent.Event.Title,
		"path":        path,
	})
	return nil
}

// writePackageFile serializes the package to campaign-packages/ with a
// timestamp-and-ID name so runs never clobber each other's output.
func (e *Engine) writePackageFile(pkg *campaign.CampaignPackage) (string, error) {
	if err := os.MkdirAll(e.cfg.Output.PackagesDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create packages directory: %w", err)
	}

	name := fmt.Sprintf("campaign_%s_%s.json", e.now().Format("20060102_150405"), pkg.ID[:8])
	path := filepath.Join(e.cfg.Output.PackagesDir, name)

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal campaign package: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// writeDigest renders the run's markdown summary. An empty run still gets
// a digest stating that nothing qualified.
func (e *Engine) writeDigest(ctx context.Context, runID string, packages []campaign.CampaignPackage) error {
	content, err := e.markdown.Render(ctx, packages)
	if err != nil {
		return fmt.Errorf("markdown rendering: %w", err)
	}

	if err := os.MkdirAll(e.cfg.Output.MarkdownDir, 0755); err != nil {
		return fmt.Errorf("failed to create markdown directory: %w", err)
	}
	name := fmt.Sprintf("%s_digest_%s.md", e.now().Format("2006-01-02"), runID[:8])
	path := filepath.Join(e.cfg.Output.MarkdownDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Printf("[Pipeline] Wrote markdown digest to %s", path)
	e.publishEvent(ctx, store.PipelineEvent{Stage: "digest_written", RunID: runID, Detail: path})
	return nil
}
