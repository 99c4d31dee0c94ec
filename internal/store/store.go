// Package store is the Redis-backed run ledger for the hype pipeline.
// It records campaign packages and run summaries, tracks which events have
// already been campaigned across daily runs, and publishes live progress
// events for `hype watch`. The durable archive lives in SQLite
// (internal/archive); Redis holds operational state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dyluth/hype/pkg/campaign"
	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for the run ledger.
// All keys and channels are automatically namespaced with the instance name.
// The client is safe for concurrent use.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a ledger client for the specified instance.
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// RecordCampaign writes a campaign package to the ledger and publishes a
// pipeline event. Validates the package before writing. Idempotent: writing
// the same package twice is safe.
func (c *Client) RecordCampaign(ctx context.Context, pkg *campaign.CampaignPackage) error {
	if err := pkg.Validate(); err != nil {
		return fmt.Errorf("invalid campaign package: %w", err)
	}

	hash, err := campaignToHash(pkg)
	if err != nil {
		return fmt.Errorf("failed to serialize campaign: %w", err)
	}

	key := CampaignKey(c.instanceName, pkg.ID)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write campaign to Redis: %w", err)
	}

	return c.PublishEvent(ctx, PipelineEvent{
		Stage:       "package_recorded",
		RunID:       pkg.RunID,
		CampaignID:  pkg.ID,
		EventTitle:  pkg.SourceEvent.Event.Title,
		City:        pkg.SourceEvent.Event.Location,
		TimestampMs: pkg.CreatedAtMs,
	})
}

// GetCampaign retrieves a campaign package by ID.
// Returns (nil, redis.Nil) if it doesn't exist; use IsNotFound to check.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*campaign.CampaignPackage, error) {
	key := CampaignKey(c.instanceName, campaignID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign from Redis: %w", err)
	}
	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	pkg, err := hashToCampaign(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize campaign: %w", err)
	}
	return pkg, nil
}

// RecordRun writes a run record and indexes it by start time.
// Called once when a run starts and again when it finishes; the second write
// replaces the first.
func (c *Client) RecordRun(ctx context.Context, run *campaign.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}

	key := RunKey(c.instanceName, run.RunID)
	if err := c.rdb.HSet(ctx, key, runToHash(run)).Err(); err != nil {
		return fmt.Errorf("failed to write run to Redis: %w", err)
	}

	z := redis.Z{Score: float64(run.StartedAtMs), Member: run.RunID}
	if err := c.rdb.ZAdd(ctx, RunsIndexKey(c.instanceName), z).Err(); err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}

	return nil
}

// GetRun retrieves a run record by ID.
// Returns (nil, redis.Nil) if it doesn't exist.
func (c *Client) GetRun(ctx context.Context, runID string) (*campaign.RunRecord, error) {
	key := RunKey(c.instanceName, runID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run from Redis: %w", err)
	}
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	return hashToRun(hashData)
}

// LatestRunID returns the ID of the most recently started run.
// Returns ("", redis.Nil) if no runs exist.
func (c *Client) LatestRunID(ctx context.Context) (string, error) {
	results, err := c.rdb.ZRevRange(ctx, RunsIndexKey(c.instanceName), 0, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read runs index: %w", err)
	}
	if len(results) == 0 {
		return "", redis.Nil
	}
	return results[0], nil
}

// MarkEventSeen records that an event has been campaigned, so later runs
// skip it.
func (c *Client) MarkEventSeen(ctx context.Context, source, title string) error {
	key := SeenEventsKey(c.instanceName)
	if err := c.rdb.SAdd(ctx, key, SeenEventMember(source, title)).Err(); err != nil {
		return fmt.Errorf("failed to mark event seen: %w", err)
	}
	return nil
}

// IsEventSeen reports whether an event was campaigned in a previous run.
func (c *Client) IsEventSeen(ctx context.Context, source, title string) (bool, error) {
	key := SeenEventsKey(c.instanceName)
	seen, err := c.rdb.SIsMember(ctx, key, SeenEventMember(source, title)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check seen event: %w", err)
	}
	return seen, nil
}

// PipelineEvent is one progress notification published during a run.
type PipelineEvent struct {
	Stage       string `json:"stage"` // e.g. "run_started", "event_scored", "package_recorded"
	RunID       string `json:"run_id"`
	CampaignID  string `json:"campaign_id,omitempty"`
	EventTitle  string `json:"event_title,omitempty"`
	City        string `json:"city,omitempty"`
	Detail      string `json:"detail,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// PublishEvent publishes a pipeline progress event for live watchers.
// Publish failures are returned but callers normally just log them; losing a
// progress event never affects the run itself.
func (c *Client) PublishEvent(ctx context.Context, ev PipelineEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal pipeline event: %w", err)
	}
	channel := PipelineEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish pipeline event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to pipeline events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *PipelineEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of pipeline events. Closed when the
// subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *PipelineEvent {
	return s.events
}

// Errors returns the channel of subscription errors. Errors are non-fatal;
// the subscription continues and the malformed message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer. Safe to call multiple
// times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribePipelineEvents subscribes to live pipeline progress events for
// this instance. Events are delivered on a buffered channel (size 10);
// Redis Pub/Sub is at-most-once, so slow subscribers may miss events.
func (c *Client) SubscribePipelineEvents(ctx context.Context) (*Subscription, error) {
	channel := PipelineEventsChannel(c.instanceName)
	pubsub := c.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan *PipelineEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev PipelineEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal pipeline event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

// campaignToHash converts a package to a flat Redis hash. Scalars are stored
// as string fields; nested structs are JSON-encoded per field.
func campaignToHash(pkg *campaign.CampaignPackage) (map[string]string, error) {
	hash := map[string]string{
		"id":            pkg.ID,
		"run_id":        pkg.RunID,
		"created_at_ms": strconv.FormatInt(pkg.CreatedAtMs, 10),
	}
	for field, v := range map[string]any{
		"source_event":   pkg.SourceEvent,
		"creative_brief": pkg.Brief,
		"text_assets":    pkg.TextAssets,
		"visual":         pkg.Visual,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", field, err)
		}
		hash[field] = string(data)
	}
	return hash, nil
}

// hashToCampaign reverses campaignToHash.
func hashToCampaign(hash map[string]string) (*campaign.CampaignPackage, error) {
	createdAt, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse created_at_ms: %w", err)
	}

	pkg := &campaign.CampaignPackage{
		ID:          hash["id"],
		RunID:       hash["run_id"],
		CreatedAtMs: createdAt,
	}
	for field, dst := range map[string]any{
		"source_event":   &pkg.SourceEvent,
		"creative_brief": &pkg.Brief,
		"text_assets":    &pkg.TextAssets,
		"visual":         &pkg.Visual,
	} {
		if err := json.Unmarshal([]byte(hash[field]), dst); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", field, err)
		}
	}
	return pkg, nil
}

func runToHash(run *campaign.RunRecord) map[string]string {
	return map[string]string{
		"run_id":             run.RunID,
		"started_at_ms":      strconv.FormatInt(run.StartedAtMs, 10),
		"finished_at_ms":     strconv.FormatInt(run.FinishedAtMs, 10),
		"events_scanned":     strconv.Itoa(run.EventsScanned),
		"events_qualified":   strconv.Itoa(run.EventsQualified),
		"campaigns_produced": strconv.Itoa(run.CampaignsProduced),
		"status":             string(run.Status),
	}
}

func hashToRun(hash map[string]string) (*campaign.RunRecord, error) {
	started, err := strconv.ParseInt(hash["started_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse started_at_ms: %w", err)
	}
	finished, err := strconv.ParseInt(hash["finished_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse finished_at_ms: %w", err)
	}
	scanned, err := strconv.Atoi(hash["events_scanned"])
	if err != nil {
		return nil, fmt.Errorf("parse events_scanned: %w", err)
	}
	qualified, err := strconv.Atoi(hash["events_qualified"])
	if err != nil {
		return nil, fmt.Errorf("parse events_qualified: %w", err)
	}
	produced, err := strconv.Atoi(hash["campaigns_produced"])
	if err != nil {
		return nil, fmt.Errorf("parse campaigns_produced: %w", err)
	}

	return &campaign.RunRecord{
		RunID:             hash["run_id"],
		StartedAtMs:       started,
		FinishedAtMs:      finished,
		EventsScanned:     scanned,
		EventsQualified:   qualified,
		CampaignsProduced: produced,
		Status:            campaign.RunStatus(hash["status"]),
	}, nil
}
