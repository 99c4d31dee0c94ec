package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/hype/internal/agent"
	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/internal/store"
	"github.com/dyluth/hype/pkg/campaign"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Distinct system prompts let the scripted model dispatch per agent.
const (
	analyzerPrompt   = "analyzer for %s"
	directorPrompt   = "director"
	copywriterPrompt = "copywriter"
	visualPrompt     = "visual"
	markdownPrompt   = "markdown"
)

// scriptedChat routes each call to a canned reply keyed by the system
// prompt prefix. Replies may be errors.
type scriptedChat struct {
	replies map[string]string
	errors  map[string]error
}

func (s *scriptedChat) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	system := req.Messages[0].Content
	for key, err := range s.errors {
		if strings.HasPrefix(system, key) {
			return llm.ChatResponse{}, err
		}
	}
	for key, reply := range s.replies {
		if strings.HasPrefix(system, key) {
			return llm.ChatResponse{Content: reply, FinishReason: "stop"}, nil
		}
	}
	return llm.ChatResponse{}, fmt.Errorf("no scripted reply for system prompt %q", system)
}

// stubSource returns fixed events or an error. onFetch, when set, fires
// before the result is returned.
type stubSource struct {
	name    string
	city    string
	events  []campaign.Event
	err     error
	onFetch func()
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) City() string { return s.city }
func (s *stubSource) Fetch(ctx context.Context) ([]campaign.Event, error) {
	if s.onFetch != nil {
		s.onFetch()
	}
	return s.events, s.err
}

// stubImages returns fixed bytes or an error.
type stubImages struct {
	data  []byte
	err   error
	calls int
}

func (s *stubImages) Generate(ctx context.Context, prompt string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func defaultReplies() map[string]string {
	return map[string]string{
		"analyzer": `{"analyzed_events":[
			{"index":0,"summary":"big draw","marketing_potential_score":8,"reasoning":"citywide"},
			{"index":1,"summary":"small","marketing_potential_score":5,"reasoning":"niche"}
		]}`,
		directorPrompt:   `{"marketing_angle":"taste the city","target_emotion":"joy","key_message":"one night","target_audience":"everyone"}`,
		copywriterPrompt: `{"slogan":"s","social_media_post":"p","web_banner_copy":"b"}`,
		visualPrompt:     `{"image_prompt":"neon market at night"}`,
		markdownPrompt:   "# Campaign Digest\n\nOne great campaign.",
	}
}

func testEvents(source string) []campaign.Event {
	return []campaign.Event{
		{Source: source, Title: "Night Market", Location: "Springfield"},
		{Source: source, Title: "Bake Sale", Location: "Springfield"},
	}
}

type testEnv struct {
	engine *Engine
	cfg    *config.HypeConfig
	ledger *store.Client
	db     *archive.DB
	images *stubImages
}

func newTestEnv(t *testing.T, chat *scriptedChat, sources []stubSource, images *stubImages) *testEnv {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	ledger, err := store.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	dir := t.TempDir()
	db, err := archive.Open(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.HypeConfig{
		Version:   "1.0",
		Instance:  "test-instance",
		Threshold: 7,
		Sources:   map[string]config.Source{},
		Output: config.OutputConfig{
			PackagesDir: filepath.Join(dir, "campaign-packages"),
			ImagesDir:   filepath.Join(dir, "campaign-images"),
			MarkdownDir: filepath.Join(dir, "campaign-digests"),
		},
	}

	deps := Deps{
		Analyzer: agent.NewTrendAnalyzer(chat, analyzerPrompt),
		Director: agent.NewCreativeDirector(chat, directorPrompt),
		Writer:   agent.NewCopywriter(chat, copywriterPrompt),
		Visual:   agent.NewVisualStrategist(chat, visualPrompt),
		Markdown: agent.NewMarkdownWriter(chat, markdownPrompt),
		Images:   images,
		Ledger:   ledger,
		Archive:  db,
	}
	for i := range sources {
		deps.Sources = append(deps.Sources, &sources[i])
	}

	return &testEnv{
		engine: NewEngine(cfg, deps),
		cfg:    cfg,
		ledger: ledger,
		db:     db,
		images: images,
	}
}

func TestRunOnce_HappyPath(t *testing.T) {
	chat := &scriptedChat{replies: defaultReplies()}
	images := &stubImages{data: []byte("png")}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, images)
	ctx := context.Background()

	record, err := env.engine.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, campaign.RunStatusComplete, record.Status)
	assert.Equal(t, 2, record.EventsScanned)
	assert.Equal(t, 1, record.EventsQualified, "only the event at or above the threshold qualifies")
	assert.Equal(t, 1, record.CampaignsProduced)
	assert.Equal(t, 1, images.calls)

	// Package file written and complete
	files, err := filepath.Glob(filepath.Join(env.cfg.Output.PackagesDir, "campaign_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var pkg campaign.CampaignPackage
	require.NoError(t, json.Unmarshal(data, &pkg))
	assert.Equal(t, "Night Market", pkg.SourceEvent.Event.Title)
	assert.Equal(t, 8, pkg.SourceEvent.Score)
	assert.Equal(t, "taste the city", pkg.Brief.Angle)
	assert.Equal(t, "s", pkg.TextAssets.Slogan)
	assert.Equal(t, campaign.AssetStatusSuccess, pkg.Visual.Status)
	assert.FileExists(t, pkg.Visual.Path)

	// Recorded in the ledger and run record readable back
	got, err := env.ledger.GetCampaign(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Equal(t, pkg.ID, got.ID)

	latest, err := env.ledger.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, record.RunID, latest)

	// Archived for hype list
	rows, err := env.db.List(archive.Criteria{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Night Market", rows[0].Title)
	assert.Equal(t, files[0], rows[0].PackagePath)

	// Digest written
	digests, err := filepath.Glob(filepath.Join(env.cfg.Output.MarkdownDir, "*.md"))
	require.NoError(t, err)
	require.Len(t, digests, 1)
	content, err := os.ReadFile(digests[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Campaign Digest")
}

func TestRunOnce_DedupAcrossRuns(t *testing.T) {
	chat := &scriptedChat{replies: defaultReplies()}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{data: []byte("png")})
	ctx := context.Background()

	first, err := env.engine.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.CampaignsProduced)

	second, err := env.engine.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CampaignsProduced)

	rows, err := env.db.List(archive.Criteria{})
	require.NoError(t, err)
	assert.Len(t, rows, 1, "the same event must not be campaigned twice")
}

func TestRunOnce_DedupDisabledRerunsProduceDistinctFiles(t *testing.T) {
	chat := &scriptedChat{replies: defaultReplies()}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{data: []byte("png")})
	disabled := false
	env.cfg.Dedup = &disabled
	ctx := context.Background()

	first, err := env.engine.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.CampaignsProduced)

	second, err := env.engine.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, second.CampaignsProduced)

	// Each run wrote its own package file; the first run's file survives
	files, err := filepath.Glob(filepath.Join(env.cfg.Output.PackagesDir, "campaign_*.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2, "rerunning over identical input writes independent files")

	rows, err := env.db.List(archive.Criteria{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// With dedup off, nothing is marked seen
	seen, err := env.ledger.IsEventSeen(ctx, "downtown-events", "Night Market")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRunOnce_SourceFailureIsolated(t *testing.T) {
	chat := &scriptedChat{replies: defaultReplies()}
	env := newTestEnv(t, chat, []stubSource{
		{name: "dead-source", city: "Shelbyville", err: fmt.Errorf("connection refused")},
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{data: []byte("png")})

	record, err := env.engine.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, campaign.RunStatusComplete, record.Status)
	assert.Equal(t, 1, record.CampaignsProduced, "the healthy source still produces")
}

func TestRunOnce_ImageFailureDegradesPackage(t *testing.T) {
	chat := &scriptedChat{replies: defaultReplies()}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{err: fmt.Errorf("image API down")})

	record, err := env.engine.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, record.CampaignsProduced, "image failure must not drop the campaign")

	rows, err := env.db.List(archive.Criteria{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(campaign.AssetStatusFailed), rows[0].ImageStatus)

	files, err := filepath.Glob(filepath.Join(env.cfg.Output.PackagesDir, "campaign_*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	var pkg campaign.CampaignPackage
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pkg))
	assert.Equal(t, campaign.AssetStatusFailed, pkg.Visual.Status)
	assert.Contains(t, pkg.Visual.Error, "image API down")
	assert.Equal(t, "s", pkg.TextAssets.Slogan, "copy survives image failure")
}

func TestRunOnce_BriefFailureSkipsEvent(t *testing.T) {
	chat := &scriptedChat{
		replies: defaultReplies(),
		errors:  map[string]error{directorPrompt: fmt.Errorf("model unavailable")},
	}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{data: []byte("png")})

	record, err := env.engine.RunOnce(context.Background())
	require.NoError(t, err, "per-event failures never abort the run")

	assert.Equal(t, campaign.RunStatusComplete, record.Status)
	assert.Equal(t, 1, record.EventsQualified)
	assert.Equal(t, 0, record.CampaignsProduced)

	// A digest is still written for the empty result
	digests, err := filepath.Glob(filepath.Join(env.cfg.Output.MarkdownDir, "*.md"))
	require.NoError(t, err)
	assert.Len(t, digests, 1)

	// The failed event is not marked seen, so tomorrow retries it
	seen, err := env.ledger.IsEventSeen(context.Background(), "downtown-events", "Night Market")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRunOnce_CancellationSealsRunAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	chat := &scriptedChat{replies: defaultReplies()}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events"), onFetch: cancel},
	}, &stubImages{data: []byte("png")})

	record, err := env.engine.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, record)
	assert.Equal(t, campaign.RunStatusFailed, record.Status)
	assert.Equal(t, 0, record.CampaignsProduced)

	// The failed record still lands in the ledger
	got, err := env.ledger.GetRun(context.Background(), record.RunID)
	require.NoError(t, err)
	assert.Equal(t, campaign.RunStatusFailed, got.Status)
}

func TestRunOnce_NoQualifyingEvents(t *testing.T) {
	replies := defaultReplies()
	replies["analyzer"] = `{"analyzed_events":[
		{"index":0,"summary":"meh","marketing_potential_score":3,"reasoning":"small"},
		{"index":1,"summary":"meh","marketing_potential_score":2,"reasoning":"small"}
	]}`
	chat := &scriptedChat{replies: replies}
	env := newTestEnv(t, chat, []stubSource{
		{name: "downtown-events", city: "Springfield", events: testEvents("downtown-events")},
	}, &stubImages{data: []byte("png")})

	record, err := env.engine.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, record.EventsScanned)
	assert.Equal(t, 0, record.EventsQualified)
	assert.Equal(t, 0, record.CampaignsProduced)

	digests, err := filepath.Glob(filepath.Join(env.cfg.Output.MarkdownDir, "*.md"))
	require.NoError(t, err)
	require.Len(t, digests, 1)
	content, err := os.ReadFile(digests[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "No campaigns were produced")
}
