// Package watch streams live pipeline activity to a terminal.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/hype/internal/store"
)

// OutputFormat selects how events are rendered.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// stageIcons give each pipeline stage a glanceable marker in default output.
var stageIcons = map[string]string{
	"run_started":      "🚀",
	"event_qualified":  "⭐",
	"package_recorded": "📦",
	"digest_written":   "📝",
	"run_finished":     "🏁",
}

// StreamActivity subscribes to the instance's pipeline events and writes
// each one to w as it arrives. Blocks until ctx is cancelled or the
// subscription fails.
func StreamActivity(ctx context.Context, ledger *store.Client, format OutputFormat, w io.Writer) error {
	sub, err := ledger.SubscribePipelineEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to pipeline events: %w", err)
	}
	defer sub.Close()

	if format == OutputFormatDefault {
		fmt.Fprintln(w, "Watching pipeline activity (Ctrl+C to stop)...")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			return fmt.Errorf("subscription error: %w", err)
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := writeEvent(w, format, ev); err != nil {
				return err
			}
		}
	}
}

func writeEvent(w io.Writer, format OutputFormat, ev *store.PipelineEvent) error {
	if format == OutputFormatJSON {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	icon, ok := stageIcons[ev.Stage]
	if !ok {
		icon = "•"
	}
	ts := time.UnixMilli(ev.TimestampMs).Format("15:04:05")

	line := fmt.Sprintf("[%s] %s %s", ts, icon, ev.Stage)
	if ev.EventTitle != "" {
		line += fmt.Sprintf("  %q", ev.EventTitle)
	}
	if ev.City != "" {
		line += fmt.Sprintf(" (%s)", ev.City)
	}
	if ev.Detail != "" {
		line += "  " + ev.Detail
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
