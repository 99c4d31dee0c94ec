package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/printer"
	"github.com/dyluth/hype/internal/store"
	"github.com/dyluth/hype/internal/watch"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var watchOutputFormat string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor live pipeline activity",
	Long: `Stream pipeline progress events as they occur: run starts, qualifying
events, recorded campaign packages, and digest writes.

Output Formats:
  default - Human-readable output with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the configured instance
  hype watch

  # Export events as JSON
  hype watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ledger, err := store.NewClient(&redis.Options{Addr: cfg.Redis.Addr}, cfg.Instance)
	if err != nil {
		return fmt.Errorf("failed to create ledger client: %w", err)
	}
	defer ledger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ledger.Ping(ctx); err != nil {
		return printer.Error(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.Addr),
			[]string{"Check the redis.addr setting in hype.yml", "Verify the Redis server is running"},
		)
	}

	return watch.StreamActivity(ctx, ledger, outputFormat, os.Stdout)
}
