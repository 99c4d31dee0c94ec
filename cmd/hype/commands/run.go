package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/hype/internal/printer"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run immediately",
	Long: `Execute the full campaign pipeline once and exit.

Scans every configured source, scores the events, and produces a
campaign package for each event at or above the threshold, finishing
with a markdown digest of the run.

Requires a reachable Redis and the OPENAI_API_KEY environment variable.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer.Step("Starting pipeline run...")
	record, err := rt.engine.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printer.Success("Run %s complete: %d events scanned, %d qualified, %d campaigns produced",
		record.RunID[:8], record.EventsScanned, record.EventsQualified, record.CampaignsProduced)
	return nil
}
