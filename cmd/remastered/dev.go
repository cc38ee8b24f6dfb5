package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/config"
	"github.com/remastered-go/remastered/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port      int
		host      string
		noReload  bool
		appPort   int
		appCmdPkg string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server builds and runs your app, regenerates the route
registry when route files change, and refreshes connected browsers.
Route edits that keep the tree intact are sent as module updates.

Examples:
  remastered dev
  remastered dev --port=8080
  remastered dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd.Context(), port, host, appPort, appCmdPkg, noReload)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from remastered.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from remastered.json)")
	cmd.Flags().IntVar(&appPort, "app-port", 0, "Port of the supervised app")
	cmd.Flags().StringVar(&appCmdPkg, "cmd", "", "Package to build and run (default from remastered.json)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable browser hot reload")

	return cmd
}

func runDev(ctx context.Context, port int, host string, appPort int, pkg string, noReload bool) error {
	if _, err := exec.LookPath("go"); err != nil {
		warn("Go is not installed or not in PATH")
		info("Install Go from https://go.dev/dl/")
		return err
	}

	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}
	if appPort > 0 {
		cfg.Dev.AppPort = appPort
	}
	if pkg != "" {
		cfg.Dev.Cmd = pkg
	}
	if noReload {
		cfg.Dev.HotReload = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()
	info("Local: %s", cfg.DevURL())
	fmt.Println()

	supervisor := dev.NewSupervisor(dev.SupervisorOptions{
		Config: cfg,
		OnBuildComplete: func(result dev.BuildResult) {
			if result.Success {
				success("Built in %s", result.Duration.Round(time.Millisecond))
			}
		},
		OnReload: func(clients int) {
			success("Reloaded %d browsers", clients)
		},
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		fmt.Println("\n\n  Shutting down...")
		supervisor.Stop()
	}()

	return supervisor.Start(ctx)
}
