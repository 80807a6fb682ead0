package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonathan/idea-prioritizer/internal/server"
	"github.com/jonathan/idea-prioritizer/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes POST /get_top_ideas for ranking ideas against constraints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 4600)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.New(a.pipeline, server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit: ratelimit.Policy{
			Limit:  cfg.Server.RateLimit,
			Window: cfg.Server.RateWindow,
			Burst:  cfg.Server.RateBurst,
		},
		RateWhitelist: cfg.Server.RateWhitelist,
		PruneInterval: cfg.Server.RatePruneInterval,
		Logger:        a.logger,
		Gatherer:      prometheus.DefaultGatherer,
	})
	return srv.Start(ctx)
}
