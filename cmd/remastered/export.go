package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/errors"
	"github.com/remastered-go/remastered/pkg/adapter"
	"github.com/remastered-go/remastered/pkg/export"
)

func exportCmd() *cobra.Command {
	var (
		baseURL     string
		fromFile    string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Render pages into the static export store",
		Long: `Render pages and store the responses as static exports.

Exported responses are served before the dispatcher runs. Pages are
rendered in-process from the production build, or fetched from a
running server with --url. The store is the export directory, or the
S3 bucket named by export.s3.bucket.

Examples:
  remastered export / /about
  remastered export --from-file exports.txt
  remastered export --url http://localhost:3000 /`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append([]string{}, args...)
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				paths = append(paths, export.ParsePaths(string(data))...)
			}
			return runExport(cmd.Context(), baseURL, paths, concurrency)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "Fetch pages from a running server instead of rendering in-process")
	cmd.Flags().StringVarP(&fromFile, "from-file", "f", "", "File listing paths, one per line")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Pages rendered in parallel")

	return cmd
}

func runExport(ctx context.Context, baseURL string, paths []string, concurrency int) error {
	if len(paths) == 0 {
		return errors.New("R150").
			WithDetail("No paths to export").
			WithSuggestion("Pass paths as arguments or with --from-file")
	}

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if !cfg.Export.Enabled {
		warn("export.enabled is false; stored pages will not be served")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := export.ExporterOptions{
		BaseURL:     baseURL,
		Store:       adapter.ExportStore(cfg),
		Concurrency: concurrency,
	}
	if baseURL == "" {
		pipeline, err := adapter.New(ctx, adapter.Options{
			RootDir:        cfg.Dir(),
			OutputDir:      cfg.Build.Output,
			DisableExports: true,
		})
		if err != nil {
			return err
		}
		opts.Handler = pipeline
	}

	exporter, err := export.NewExporter(opts)
	if err != nil {
		return err
	}
	if err := exporter.Export(ctx, paths...); err != nil {
		return err
	}

	success("Exported %d pages", len(paths))
	return nil
}
