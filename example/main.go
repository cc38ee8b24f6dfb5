// Command example serves the example app.
//
//	REMASTERED_ENV=production go run ./example
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remastered-go/remastered/example/site"
	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/adapter"
	"github.com/remastered-go/remastered/pkg/server"
)

func main() {
	if err := run(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	logger := slog.Default().With("app", cfg.Name)

	shutdownTracing, err := server.SetupTracing(ctx, server.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Mode),
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	if err := site.OpenDatabase(ctx); err != nil {
		return err
	}

	opts, err := site.Options(ctx, cfg, logger)
	if err != nil {
		return err
	}
	pipeline, err := adapter.New(ctx, opts)
	if err != nil {
		return err
	}

	sc := server.DefaultConfig().WithAddress(listenAddr(cfg))
	sc.PublicDir = cfg.PublicPath()
	if cfg.IsProduction() {
		sc.WithAssets(filepath.Join(cfg.OutputPath(), "client", "assets"))
	}
	if cfg.Server.Metrics {
		sc.WithMetrics(cfg.Server.MetricsPath, prometheus.DefaultGatherer)
	}

	srv := server.New(pipeline, sc)
	srv.SetLogger(logger)
	logger.Info("listening", "addr", sc.Address, "mode", pipeline.Mode())
	return srv.ListenAndServe(ctx)
}

// listenAddr prefers PORT, as set by hosting platforms and the dev
// supervisor, over server.addr.
func listenAddr(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return cfg.Server.Addr
}
