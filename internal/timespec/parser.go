package timespec

import (
	"fmt"
	"time"
)

// Parse parses a time specification into a Unix timestamp (milliseconds).
// Supports three formats:
//   - Go duration format: "1h", "30m", "72h" (relative to now, in the past)
//   - Calendar dates: "2026-08-31" (midnight local time)
//   - RFC3339 timestamps: "2026-08-31T03:00:00Z"
//
// Campaign runs are daily, so bare dates are the common case.
//
// Returns Unix timestamp in milliseconds.
func Parse(spec string) (int64, error) {
	if spec == "" {
		return 0, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UnixMilli(), nil
	}

	if t, err := time.ParseInLocation("2006-01-02", spec, time.Local); err == nil {
		return t.UnixMilli(), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		// Duration is relative to now (subtract from current time)
		return time.Now().Add(-d).UnixMilli(), nil
	}

	return 0, fmt.Errorf("invalid time specification: %s (use a duration like '72h', a date like '2026-08-31', or RFC3339)", spec)
}

// ParseRange parses both --since and --until flags into a time range.
// Returns (sinceTimestampMs, untilTimestampMs, error).
// Zero values indicate "no bound" for that end of the range.
//
// Validates that since < until if both are specified.
func ParseRange(since, until string) (int64, int64, error) {
	var sinceMS, untilMS int64
	var err error

	if since != "" {
		sinceMS, err = Parse(since)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --since: %w", err)
		}
	}

	if until != "" {
		untilMS, err = Parse(until)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if sinceMS > 0 && untilMS > 0 && sinceMS >= untilMS {
		return 0, 0, fmt.Errorf("--since must be before --until")
	}

	return sinceMS, untilMS, nil
}
