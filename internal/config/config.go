package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultThreshold is the minimum marketing potential score an event needs
// before a campaign is produced for it.
const DefaultThreshold = 7

// DefaultSchedule is the daily wall-clock time the pipeline fires at.
const DefaultSchedule = "03:00"

// HypeConfig represents the top-level hype.yml configuration.
type HypeConfig struct {
	Version   string            `yaml:"version"`
	Instance  string            `yaml:"instance"`            // Namespace for Redis keys; lets instances share one server
	Threshold int               `yaml:"threshold,omitempty"` // Minimum score for campaign generation (default 7)
	Schedule  string            `yaml:"schedule,omitempty"`  // Daily run time as "HH:MM" local time (default "03:00")
	Dedup     *bool             `yaml:"dedup,omitempty"`     // Skip events already campaigned in a previous run (default true)
	Sources   map[string]Source `yaml:"sources"`
	Output    OutputConfig      `yaml:"output,omitempty"`
	Redis     RedisConfig       `yaml:"redis,omitempty"`
	LLM       LLMConfig         `yaml:"llm,omitempty"`
	Image     ImageConfig       `yaml:"image,omitempty"`
	Metrics   MetricsConfig     `yaml:"metrics,omitempty"`
	Prompts   PromptsConfig     `yaml:"prompts,omitempty"`
}

// Source is a single scan target: one news or events page for one city.
type Source struct {
	URL  string `yaml:"url"`
	City string `yaml:"city"`
}

// OutputConfig specifies where the pipeline writes its files.
type OutputConfig struct {
	PackagesDir string `yaml:"packages_dir,omitempty"` // Default: campaign-packages
	ImagesDir   string `yaml:"images_dir,omitempty"`   // Default: campaign-images
	MarkdownDir string `yaml:"markdown_dir,omitempty"` // Default: campaign-digests
	LogFile     string `yaml:"log_file,omitempty"`     // Default: logs/hype.log
	ArchiveDB   string `yaml:"archive_db,omitempty"`   // Default: campaign-archive.db
}

// RedisConfig specifies the run ledger connection.
type RedisConfig struct {
	Addr string `yaml:"addr,omitempty"` // Default: localhost:6379
}

// LLMConfig specifies the chat completions endpoint shared by all agents.
// The API key is never read from hype.yml; it comes from OPENAI_API_KEY.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url,omitempty"` // Default: https://api.openai.com/v1
	Model          string  `yaml:"model,omitempty"`    // Default: gpt-4o
	Temperature    float32 `yaml:"temperature,omitempty"`
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 120
}

// ImageConfig specifies the image generation endpoint.
type ImageConfig struct {
	Model string `yaml:"model,omitempty"` // Default: dall-e-3
	Size  string `yaml:"size,omitempty"`  // Default: 1024x1024
}

// MetricsConfig specifies the Prometheus endpoint exposed by `hype serve`.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"` // Listen address, e.g. ":9190"; empty disables metrics
}

// PromptsConfig lets each agent's system prompt be overridden with a file
// path. Empty fields fall back to the embedded defaults.
type PromptsConfig struct {
	Scanner    string `yaml:"scanner,omitempty"`
	Analyzer   string `yaml:"analyzer,omitempty"`
	Director   string `yaml:"director,omitempty"`
	Copywriter string `yaml:"copywriter,omitempty"`
	Visual     string `yaml:"visual,omitempty"`
	Markdown   string `yaml:"markdown,omitempty"`
}

var scheduleRe = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Validate performs strict validation on the configuration and applies
// defaults for optional fields.
func (c *HypeConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: instance name
	if c.Instance == "" {
		return fmt.Errorf("instance name is required")
	}

	// Required: at least one source
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources defined")
	}
	for name, src := range c.Sources {
		if err := src.Validate(name); err != nil {
			return err
		}
	}

	// Apply default threshold if missing, then bound-check
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.Threshold < 1 || c.Threshold > 10 {
		return fmt.Errorf("threshold must be 1..10, got %d", c.Threshold)
	}

	// Dedup is on unless explicitly disabled
	if c.Dedup == nil {
		enabled := true
		c.Dedup = &enabled
	}

	// Apply default schedule, then validate HH:MM
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if !scheduleRe.MatchString(c.Schedule) {
		return fmt.Errorf("invalid schedule %q (expected 24h \"HH:MM\")", c.Schedule)
	}

	// Output defaults
	if c.Output.PackagesDir == "" {
		c.Output.PackagesDir = "campaign-packages"
	}
	if c.Output.ImagesDir == "" {
		c.Output.ImagesDir = "campaign-images"
	}
	if c.Output.MarkdownDir == "" {
		c.Output.MarkdownDir = "campaign-digests"
	}
	if c.Output.LogFile == "" {
		c.Output.LogFile = "logs/hype.log"
	}
	if c.Output.ArchiveDB == "" {
		c.Output.ArchiveDB = "campaign-archive.db"
	}

	// Redis default
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	// LLM defaults
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.LLM.TimeoutSeconds < 0 {
		return fmt.Errorf("llm.timeout_seconds must be positive, got %d", c.LLM.TimeoutSeconds)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be 0..2, got %g", c.LLM.Temperature)
	}

	// Image defaults
	if c.Image.Model == "" {
		c.Image.Model = "dall-e-3"
	}
	if c.Image.Size == "" {
		c.Image.Size = "1024x1024"
	}

	// Prompt override files must exist when specified
	for name, path := range map[string]string{
		"scanner":    c.Prompts.Scanner,
		"analyzer":   c.Prompts.Analyzer,
		"director":   c.Prompts.Director,
		"copywriter": c.Prompts.Copywriter,
		"visual":     c.Prompts.Visual,
		"markdown":   c.Prompts.Markdown,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("prompts.%s: file does not exist: %s", name, path)
		}
	}

	return nil
}

// DedupEnabled reports whether cross-run event dedup is on. When disabled,
// every run generates campaigns for all qualifying events, including ones
// a previous run already campaigned.
func (c *HypeConfig) DedupEnabled() bool {
	return c.Dedup == nil || *c.Dedup
}

// Validate performs validation on a single source configuration.
func (s *Source) Validate(name string) error {
	if s.URL == "" {
		return fmt.Errorf("source '%s': url is required", name)
	}
	if s.City == "" {
		return fmt.Errorf("source '%s': city is required", name)
	}
	return nil
}

// Load reads and validates hype.yml from the specified path.
func Load(path string) (*HypeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config HypeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// APIKey returns the generative API key from the environment.
// The key is deliberately never part of hype.yml.
func APIKey() (string, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is not set")
	}
	return key, nil
}
