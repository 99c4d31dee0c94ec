package store

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so
// multiple hype instances can safely share a single Redis server.
//
// Key pattern: hype:{instance_name}:{entity}:{id}
// Channel pattern: hype:{instance_name}:pipeline_events

// CampaignKey returns the Redis key for a campaign package record.
// Pattern: hype:{instance_name}:campaign:{campaign_id}
func CampaignKey(instanceName, campaignID string) string {
	return fmt.Sprintf("hype:%s:campaign:%s", instanceName, campaignID)
}

// RunKey returns the Redis key for a pipeline run record.
// Pattern: hype:{instance_name}:run:{run_id}
func RunKey(instanceName, runID string) string {
	return fmt.Sprintf("hype:%s:run:%s", instanceName, runID)
}

// RunsIndexKey returns the Redis key for the ZSET indexing runs by start
// time. Pattern: hype:{instance_name}:runs
func RunsIndexKey(instanceName string) string {
	return fmt.Sprintf("hype:%s:runs", instanceName)
}

// SeenEventsKey returns the Redis key for the SET of already-campaigned
// events, used for cross-run dedup.
// Pattern: hype:{instance_name}:seen_events
func SeenEventsKey(instanceName string) string {
	return fmt.Sprintf("hype:%s:seen_events", instanceName)
}

// PipelineEventsChannel returns the Pub/Sub channel name for live pipeline
// progress events consumed by `hype watch`.
// Pattern: hype:{instance_name}:pipeline_events
func PipelineEventsChannel(instanceName string) string {
	return fmt.Sprintf("hype:%s:pipeline_events", instanceName)
}

// SeenEventMember builds the SET member identifying one event across runs.
// Source plus title is the identity; the same story re-scraped on a later
// day must not produce a second campaign.
func SeenEventMember(source, title string) string {
	return fmt.Sprintf("%s|%s", source, title)
}
