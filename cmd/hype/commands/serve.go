package commands

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/hype/internal/metrics"
	"github.com/dyluth/hype/internal/printer"
	"github.com/dyluth/hype/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveNow bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on its daily schedule",
	Long: `Run the pipeline continuously, firing once per day at the configured
schedule time (default 03:00 local).

With --now, one verification run executes right away before the
schedule takes over. If metrics.addr is set in hype.yml, a Prometheus
endpoint is exposed for the duration.

Stops cleanly on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNow, "now", false, "Execute one run immediately before scheduling")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime(configPath)
	if err != nil {
		return err
	}
	defer rt.Close()

	at, err := scheduler.Parse(rt.cfg.Schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional Prometheus endpoint
	var metricsSrv *metrics.Server
	if rt.cfg.Metrics.Addr != "" {
		metricsSrv = metrics.NewServer(rt.cfg.Metrics.Addr)
		metricsErr := metricsSrv.Start()
		go func() {
			if err := <-metricsErr; err != nil {
				log.Printf("[Serve] Metrics server error: %v", err)
			}
		}()
		printer.Info("Metrics available at http://%s/metrics", rt.cfg.Metrics.Addr)
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsSrv.Shutdown(shutCtx)
		}()
	}

	job := func(jobCtx context.Context) error {
		_, err := rt.engine.RunOnce(jobCtx)
		return err
	}

	if serveNow {
		printer.Step("Executing immediate verification run...")
		if err := job(ctx); err != nil {
			log.Printf("[Serve] Immediate run failed: %v", err)
		}
	}

	printer.Info("Pipeline scheduled daily at %s for instance '%s'", at, rt.cfg.Instance)
	if err := scheduler.New(at).Run(ctx, job); err != nil && err != context.Canceled {
		return err
	}

	printer.Info("Shutting down")
	return nil
}
