// Package site wires the example app's routes into a request pipeline
// for every host: the local server, Vercel and AWS Lambda.
package site

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remastered-go/remastered/example/app/database"
	"github.com/remastered-go/remastered/example/app/routes"
	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/dev"
	"github.com/remastered-go/remastered/pkg/adapter"
	"github.com/remastered-go/remastered/pkg/assets"
	"github.com/remastered-go/remastered/pkg/entry"
)

// Entry returns the production server entry.
func Entry(logger *slog.Logger) (entry.Entry, error) {
	s, err := entry.NewServer(entry.ServerOptions{Registry: routes.Registry, Logger: logger})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Options builds the pipeline options for cfg. Development mode starts a
// dev service watching the routes until ctx is done.
func Options(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Options, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := adapter.Options{
		RootDir:   cfg.Dir(),
		OutputDir: cfg.Build.Output,
		Logger:    logger,
		Tracing:   cfg.Tracing.Enabled,
	}
	if cfg.Server.Metrics {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	if cfg.IsProduction() {
		opts.DisableExports = !cfg.Export.Enabled
		if cfg.Export.Enabled {
			opts.Store = adapter.ExportStore(cfg)
		}
		if err := useAssets(cfg.OutputPath()); err != nil {
			return opts, err
		}
		e, err := Entry(logger)
		if err != nil {
			return opts, err
		}
		opts.Entry = e
		return opts, nil
	}

	svc, err := dev.NewService(dev.ServiceOptions{
		Root:       cfg.Dir(),
		RoutesDir:  cfg.Paths.Routes,
		Registry:   routes.Registry,
		ModulePath: cfg.Module,
		Logger:     logger,
	})
	if err != nil {
		return opts, err
	}
	go func() {
		if err := svc.Start(ctx); err != nil {
			logger.Error("route watcher stopped", "error", err)
		}
	}()
	assets.Use(assets.NewPassthroughResolver(""))
	opts.Dev = svc
	return opts, nil
}

// useAssets resolves public files through the build output. Output
// without build.json keeps public files at their source names.
func useAssets(outputDir string) error {
	m, err := assets.Load(outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		assets.Use(assets.NewPassthroughResolver(""))
		return nil
	}
	if err != nil {
		return err
	}
	assets.Use(assets.NewResolver(m, ""))
	return nil
}

// Serverless opens the database and returns production options for a
// function host rooted at root, with the entry linked in.
func Serverless(ctx context.Context, root string) (adapter.Options, error) {
	if err := OpenDatabase(ctx); err != nil {
		return adapter.Options{}, err
	}
	e, err := Entry(nil)
	if err != nil {
		return adapter.Options{}, err
	}
	return adapter.Options{RootDir: root, Entry: e}, nil
}

// OpenDatabase selects the user store from REDIS_URL.
func OpenDatabase(ctx context.Context) error {
	store, err := database.Open(ctx, os.Getenv("REDIS_URL"))
	if err != nil {
		return err
	}
	database.Use(store)
	return nil
}
