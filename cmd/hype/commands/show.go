package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/internal/config"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <campaign-id>",
	Short: "Show one campaign package in full",
	Long: `Show the complete campaign package for one archived campaign:
the source event, its score and reasoning, the creative brief, all copy
assets, and the image result.

The ID can be abbreviated to a unique prefix, as printed by 'hype list'.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := archive.Open(cfg.Output.ArchiveDB)
	if err != nil {
		return fmt.Errorf("failed to open campaign archive: %w", err)
	}
	defer db.Close()

	row, err := findCampaign(db, args[0])
	if err != nil {
		return err
	}

	// The JSON file on disk is the artifact of record; fall back to the
	// archive row if it has been moved or deleted.
	data, err := os.ReadFile(row.PackagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: package file %s not readable (%v), showing archive summary\n", row.PackagePath, err)
		data, err = json.MarshalIndent(row, "", "  ")
		if err != nil {
			return err
		}
	}

	fmt.Println(string(data))
	return nil
}

// findCampaign resolves an exact or unique-prefix campaign ID.
func findCampaign(db *archive.DB, id string) (*archive.Row, error) {
	row, err := db.Get(id)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, archive.ErrNotFound) {
		return nil, err
	}

	rows, err := db.List(archive.Criteria{})
	if err != nil {
		return nil, err
	}

	var matches []archive.Row
	for _, r := range rows {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no campaign found with ID %s", id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("ID prefix %s matches %d campaigns, use a longer prefix", id, len(matches))
	}
}
