package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dyluth/hype/internal/config"
	"github.com/dyluth/hype/internal/llm"
	"github.com/dyluth/hype/internal/metrics"
	"github.com/dyluth/hype/pkg/campaign"
)

// maxBodyBytes caps how much of a page we read (2MB).
const maxBodyBytes = 2 * 1024 * 1024

// maxRawTextChars bounds the source-text snippet carried on each event.
const maxRawTextChars = 500

// HTTPSource fetches a single configured page and extracts events from it
// with one model call.
type HTTPSource struct {
	name   string
	url    string
	city   string
	prompt string
	chat   llm.Client
	http   *http.Client
}

// NewHTTPSource builds a source for one entry of the hype.yml sources map.
func NewHTTPSource(name string, src config.Source, prompt string, chat llm.Client) *HTTPSource {
	return &HTTPSource{
		name:   name,
		url:    src.URL,
		city:   src.City,
		prompt: prompt,
		chat:   chat,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// NewSourcesFromConfig builds one HTTPSource per configured source.
func NewSourcesFromConfig(cfg *config.HypeConfig, prompt string, chat llm.Client) []Source {
	sources := make([]Source, 0, len(cfg.Sources))
	for name, src := range cfg.Sources {
		sources = append(sources, NewHTTPSource(name, src, prompt, chat))
	}
	return sources
}

func (s *HTTPSource) Name() string { return s.name }
func (s *HTTPSource) City() string { return s.city }

// extractedEvents is the structured output contract for the extraction call.
type extractedEvents struct {
	Events []struct {
		Title       string `json:"event_title"`
		URL         string `json:"event_url"`
		Description string `json:"description"`
		Date        string `json:"date"`
	} `json:"events"`
}

// Fetch downloads the source page and extracts candidate events.
// A failed fetch or extraction fails only this source; callers skip it and
// continue with the rest of the run.
func (s *HTTPSource) Fetch(ctx context.Context) ([]campaign.Event, error) {
	text, err := s.scrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", s.url, err)
	}

	log.Printf("[Scanner] Scraped %s: %d chars of text", s.name, len(text))

	resp, err := s.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: s.prompt},
			{Role: "user", Content: fmt.Sprintf(
				"Here is the scraped text from a %s events page. Extract the events:\n\n%s", s.city, text)},
		},
		ResponseFormat: llm.JSONObjectFormat,
	})
	if err != nil {
		metrics.LLMRequests.WithLabelValues("scanner", "error").Inc()
		return nil, fmt.Errorf("event extraction: %w", err)
	}
	metrics.LLMRequests.WithLabelValues("scanner", "ok").Inc()

	var extracted extractedEvents
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	rawText := truncateText(text, maxRawTextChars)
	events := make([]campaign.Event, 0, len(extracted.Events))
	for _, e := range extracted.Events {
		if e.Title == "" {
			continue
		}
		events = append(events, campaign.Event{
			Source:      s.name,
			Title:       e.Title,
			URL:         e.URL,
			Description: e.Description,
			Date:        e.Date,
			Location:    s.city,
			RawText:     rawText,
		})
	}

	log.Printf("[Scanner] Extracted %d events from %s", len(events), s.name)
	return events, nil
}

// scrape fetches the page and reduces it to plain text.
func (s *HTTPSource) scrape(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	// Some event sites refuse requests without browser-ish headers.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return stripHTML(string(body)), nil
}
