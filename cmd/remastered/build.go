package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/build"
	"github.com/remastered-go/remastered/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		output     string
		minify     bool
		sourceMaps bool
		noPlugin   bool
		clean      bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Build the application for production deployment.

This command:
  • Validates the route tree
  • Compiles the server entry plugin
  • Compiles the client split of the routes to WebAssembly
  • Bundles the client entry with esbuild
  • Copies public files with content hashes
  • Writes the client and SSR manifests

Examples:
  remastered build
  remastered build --output=out
  remastered build --no-plugin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), output, minify, sourceMaps, noPlugin, clean)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from remastered.json)")
	cmd.Flags().BoolVar(&minify, "minify", true, "Minify output")
	cmd.Flags().BoolVar(&sourceMaps, "sourcemaps", false, "Generate source maps")
	cmd.Flags().BoolVar(&noPlugin, "no-plugin", false, "Skip the server entry plugin")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove output and staging directories before building")

	return cmd
}

func runBuild(ctx context.Context, output string, minify, sourceMaps, noPlugin, clean bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Build.Output = output
	}

	fmt.Println("  Building for production...")
	fmt.Println()

	builder := build.New(cfg, build.Options{
		Minify:     minify,
		SourceMaps: sourceMaps,
		SkipPlugin: noPlugin,
		OnProgress: printStep,
	})

	if clean {
		info("Cleaning output directory...")
		if err := builder.Clean(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build %s complete in %s", result.BuildID[:8], result.Duration.Round(time.Millisecond))
	fmt.Println()
	fmt.Println("  Output:")
	fmt.Printf("    %s/\n", cfg.Build.Output)
	fmt.Printf("    ├── %s\n", build.BuildInfoFile)
	if result.ServerEntry != "" {
		fmt.Printf("    ├── %s\n", build.ServerEntryFile)
	}
	fmt.Printf("    └── client/\n")
	fmt.Printf("        ├── manifest.json      (%d chunks)\n", len(result.ClientManifest))
	fmt.Printf("        ├── ssr-manifest.json  (%d modules)\n", len(result.SSRManifest))
	fmt.Printf("        └── assets/            (%d public files)\n", len(result.Assets))
	fmt.Println()
	fmt.Printf("  %d routes: ", len(result.Routes))
	for i, r := range result.Routes {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Print(r)
	}
	fmt.Println()

	return nil
}

// printStep prints a build progress line as is.
func printStep(step string) {
	info("%s", step)
}
