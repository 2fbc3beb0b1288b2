package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/wesm/rosterview/internal/api"
	"github.com/wesm/rosterview/internal/config"
	"github.com/wesm/rosterview/internal/scheduler"
	"github.com/wesm/rosterview/internal/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with scheduled roster refreshes",
	Long: `Run rosterview as a long-running server exposing the view engine over a
JSON HTTP API.

The server runs in the foreground and performs:
  - HTTP API server on the configured port (default: 8080)
  - An initial roster load, served as status "loading" until it completes
  - Scheduled reloads when [refresh] schedule is set

Configure the refresh schedule in config.toml:
  [refresh]
  schedule = "*/15 * * * *"   # every 15 minutes (cron format)

Use Ctrl+C to stop the server gracefully.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Validate security posture before doing any work
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}

	provider, closeProvider, err := openProvider(cfg)
	if err != nil {
		return err
	}
	defer closeProvider()

	vopts, err := viewOptions(cfg)
	if err != nil {
		return err
	}
	engine := view.NewEngine(provider, vopts)
	apiServer := api.NewServer(cfg, engine, nil, logger)

	sched := scheduler.New(apiServer.ScheduledRefresh).WithLogger(logger)
	scheduled, err := sched.AddFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	if scheduled {
		apiServer.SetScheduler(sched)
		sched.Start()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		if err := apiServer.Reload(ctx); err != nil {
			logger.Error("initial roster load failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	out := cmd.OutOrStdout()
	printServeBanner(out, cfg, apiServer.Addr(), sched.Status())

	var runErr error
	select {
	case runErr = <-serverErr:
		logger.Error("API server error", "error", runErr)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	fmt.Fprintln(out, "\nShutting down API server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}

	if scheduled {
		fmt.Fprintln(out, "Waiting for in-flight roster refreshes...")
		select {
		case <-sched.Stop().Done():
		case <-time.After(30 * time.Second):
			fmt.Fprintln(out, "Shutdown timed out after 30 seconds.")
			return runErr
		}
	}
	fmt.Fprintln(out, "Shutdown complete.")
	return runErr
}

// printServeBanner reports where the API listens and when each scheduled
// refresh fires next.
func printServeBanner(w io.Writer, c *config.Config, addr string, jobs []scheduler.JobStatus) {
	fmt.Fprintf(w, "rosterview server started\n")
	fmt.Fprintf(w, "  API server:     http://%s\n", addr)
	fmt.Fprintf(w, "  Source:         %s\n", c.Source.Kind)
	fmt.Fprintf(w, "  Data directory: %s\n", c.Data.DataDir)
	if len(jobs) == 0 {
		fmt.Fprintln(w, "  Refresh:        manual (POST /api/v1/reload)")
	}
	for _, j := range jobs {
		fmt.Fprintf(w, "  Refresh %s: %s, next at %s\n", j.Name, j.Schedule, j.NextRun.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop.")
}
