package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexseg/lexseg/internal/progresssrv"
)

// serveCmd starts the optional HTTP server exposing Prometheus metrics and
// a WebSocket progress feed. It does not itself run the pipeline, and the
// Hub that progresssrv.New creates here is not attached to any Orchestrator,
// so /progress carries no events when started from this command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metrics and progress-streaming HTTP server",
	Long: `Serve starts an HTTP server exposing:
  GET  /metrics - Prometheus metrics
  GET  /progress - WebSocket progress feed
  GET  /health  - liveness check

Examples:
  lexseg serve
  lexseg serve --metrics-addr :9090`,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("metrics-addr", "", "address to listen on (overrides server.metrics_addr config)")
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	addr := cfg.Server.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if addr == "" {
		addr = ":9090"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		slog.Info("serve: received shutdown signal", "signal", sig.String())
		cancel()
	}()

	srv := progresssrv.New(addr)
	slog.Info("serve: listening", "addr", addr)
	return srv.Start(ctx)
}
