package commands

import (
	"fmt"
	"os"

	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/timespec"
	"github.com/spf13/cobra"
)

var (
	listSince    string
	listUntil    string
	listCity     string
	listMinScore int
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived campaign packages",
	Long: `List campaign packages from the archive, newest runs last.

Filters:
  --since/--until  Time bounds: a duration like '72h', a date like
                   '2026-08-31', or an RFC3339 timestamp
  --city           Only campaigns for this city
  --min-score      Only campaigns whose event scored at least this

Use --json for line-delimited JSON output.

Examples:
  # Everything from the last three days
  hype list --since 72h

  # High scorers in one city, as JSON
  hype list --city "Springfield" --min-score 9 --json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSince, "since", "", "Only campaigns created after this time")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only campaigns created before this time")
	listCmd.Flags().StringVar(&listCity, "city", "", "Only campaigns for this city")
	listCmd.Flags().IntVar(&listMinScore, "min-score", 0, "Only campaigns scoring at least this")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output line-delimited JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sinceMS, untilMS, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return err
	}

	db, err := archive.Open(cfg.Output.ArchiveDB)
	if err != nil {
		return fmt.Errorf("failed to open campaign archive: %w", err)
	}
	defer db.Close()

	rows, err := db.List(archive.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		City:             listCity,
		MinScore:         listMinScore,
	})
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}

	if listJSON {
		return archive.FormatJSONL(os.Stdout, rows)
	}
	archive.FormatTable(os.Stdout, rows, cfg.Instance)
	return nil
}
