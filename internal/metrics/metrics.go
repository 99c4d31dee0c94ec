// Package metrics exposes Prometheus instrumentation for the hype pipeline.
// The collectors are package-level because exactly one pipeline runs per
// process; `hype serve` exposes them over promhttp.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsTotal counts pipeline runs by final status.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "runs_total",
		Help:      "Pipeline runs by final status",
	}, []string{"status"})

	// EventsScanned counts events discovered per source.
	EventsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "events_scanned_total",
		Help:      "Events discovered by the scanner, per source",
	}, []string{"source"})

	// SourceFailures counts scan failures per source.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "source_failures_total",
		Help:      "Scan failures, per source",
	}, []string{"source"})

	// CampaignsProduced counts completed campaign packages per city.
	CampaignsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "campaigns_produced_total",
		Help:      "Campaign packages produced, per city",
	}, []string{"city"})

	// LLMRequests counts chat completion calls by agent and outcome.
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "llm_requests_total",
		Help:      "Chat completion calls by agent and outcome",
	}, []string{"agent", "outcome"})

	// ImageFailures counts image generation failures.
	ImageFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "hype",
		Name:      "image_failures_total",
		Help:      "Image generation failures",
	})

	// RunDuration observes wall-clock run duration.
	RunDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Namespace: "hype",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of pipeline runs",
	})

	// LastRunTimestamp records when the last run finished.
	LastRunTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hype",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last pipeline run finished",
	})
)

// Server exposes /metrics over HTTP.
type Server struct {
	server *http.Server
}

// NewServer builds a metrics server on the given listen address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins serving in a background goroutine.
// Errors other than graceful close are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
