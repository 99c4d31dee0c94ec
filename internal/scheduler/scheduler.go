// Package scheduler fires a job once per day at a configured wall-clock
// time. There is deliberately no cron expression support: the pipeline has
// exactly one schedule, "every day at HH:MM local time".
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time in the local timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Parse parses a "HH:MM" specification (24-hour clock).
func Parse(spec string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time specification: %s (use 24h \"HH:MM\" like \"03:00\")", spec)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", spec)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", spec)
	}

	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the next occurrence of this wall-clock time strictly after
// now, in now's location.
func (t TimeOfDay) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Job is the work fired on each tick. Jobs receive the scheduler's context
// and handle their own failures; a job error never stops the schedule.
type Job func(ctx context.Context) error

// Scheduler fires a job once per day.
type Scheduler struct {
	at  TimeOfDay
	now func() time.Time // injectable for tests
}

// New creates a scheduler for the given wall-clock time.
func New(at TimeOfDay) *Scheduler {
	return &Scheduler{at: at, now: time.Now}
}

// Run blocks, firing the job at each daily tick, until ctx is cancelled.
// Returns ctx.Err() on cancellation.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	for {
		next := s.at.Next(s.now())
		wait := next.Sub(s.now())
		log.Printf("[Scheduler] Next run at %s (in %s)", next.Format(time.RFC3339), wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("[Scheduler] Shutting down")
			return ctx.Err()
		case <-timer.C:
		}

		if err := job(ctx); err != nil {
			// Scheduled runs are failure-isolated from each other
			log.Printf("[Scheduler] Run failed: %v", err)
		}
	}
}
