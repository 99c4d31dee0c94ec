package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// FormatTable writes archived campaigns as a formatted table.
// Returns the number of campaigns formatted.
func FormatTable(w io.Writer, rows []Row, instanceName string) int {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No campaigns found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Campaigns for instance '%s':\n\n", instanceName)

	fmt.Fprintf(w, "%-10s %-14s %-6s %-8s %-8s %s\n",
		"ID", "CITY", "SCORE", "IMAGE", "AGE", "TITLE")
	fmt.Fprintf(w, "%-10s %-14s %-6s %-8s %-8s %s\n",
		"----------", "--------------", "------", "--------", "--------", "----------------------------------------")

	now := time.Now()
	for _, r := range rows {
		fmt.Fprintf(w, "%-10s %-14s %-6d %-8s %-8s %s\n",
			shorten(r.ID, 8),
			shorten(r.City, 14),
			r.Score,
			r.ImageStatus,
			Age(r.CreatedAtMs, now),
			shorten(r.Title, 60),
		)
	}

	countMsg := "campaign"
	if len(rows) != 1 {
		countMsg = "campaigns"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(rows), countMsg)

	return len(rows)
}

// FormatJSONL writes archived campaigns as line-delimited JSON.
// This format is ideal for processing with tools like jq.
func FormatJSONL(w io.Writer, rows []Row) error {
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal campaign to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}
	return nil
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
