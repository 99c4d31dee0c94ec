package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/hype/internal/agent"
	"github.com/dyluth/hype/internal/archive"
	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/imagegen"
	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/internal/logging"
	"github.com/dyluth/hype/internal/pipeline"
	"github.com/dyluth/hype/internal/scanner"
	"github.com/dyluth/hype/internal/store"
	"github.com/redis/go-redis/v9"
)

// Circuit breaker settings for the model endpoint. Five consecutive
// failures pause model calls for ten minutes.
const (
	guardMaxFailures = 5
	guardCooldown    = 10 * time.Minute
)

// runtime bundles everything a pipeline run needs, plus the handles that
// must be closed when the command exits.
type runtime struct {
	cfg      *config.HypeConfig
	engine   *pipeline.Engine
	ledger   *store.Client
	archive  *archive.DB
	closeLog func() error
}

// buildRuntime loads configuration and assembles the full pipeline:
// model client, sources, agents, image generator, ledger, and archive.
func buildRuntime(path string) (*runtime, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKey()
	if err != nil {
		return nil, err
	}

	closeLog, err := logging.Setup(cfg.Output.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	prompts, err := agent.LoadPrompts(cfg.Prompts)
	if err != nil {
		closeLog()
		return nil, err
	}

	ledger, err := store.NewClient(&redis.Options{Addr: cfg.Redis.Addr}, cfg.Instance)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ledger.Ping(pingCtx); err != nil {
		ledger.Close()
		closeLog()
		return nil, fmt.Errorf("redis not accessible at %s: %w", cfg.Redis.Addr, err)
	}

	db, err := archive.Open(cfg.Output.ArchiveDB)
	if err != nil {
		ledger.Close()
		closeLog()
		return nil, fmt.Errorf("failed to open campaign archive: %w", err)
	}

	chat := llm.NewGuarded(llm.NewOpenAIClient(cfg.LLM, apiKey), guardMaxFailures, guardCooldown)

	engine := pipeline.NewEngine(cfg, pipeline.Deps{
		Sources:  scanner.NewSourcesFromConfig(cfg, prompts.Scanner, chat),
		Analyzer: agent.NewTrendAnalyzer(chat, prompts.Analyzer),
		Director: agent.NewCreativeDirector(chat, prompts.Director),
		Writer:   agent.NewCopywriter(chat, prompts.Copywriter),
		Visual:   agent.NewVisualStrategist(chat, prompts.Visual),
		Markdown: agent.NewMarkdownWriter(chat, prompts.Markdown),
		Images:   imagegen.NewOpenAIGenerator(cfg.LLM, cfg.Image, apiKey),
		Ledger:   ledger,
		Archive:  db,
	})

	return &runtime{
		cfg:      cfg,
		engine:   engine,
		ledger:   ledger,
		archive:  db,
		closeLog: closeLog,
	}, nil
}

// Close releases the runtime's connections and the log file.
func (r *runtime) Close() {
	r.archive.Close()
	r.ledger.Close()
	r.closeLog()
}
