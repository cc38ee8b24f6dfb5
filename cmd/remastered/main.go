package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/remastered-go/remastered/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌┬┐┌─┐┌─┐┌┬┐┌─┐┬─┐┌─┐┌┬┐
  ├┬┘├┤ │││├─┤└─┐ │ ├┤ ├┬┘├┤  ││
  ┴└─└─┘┴ ┴┴ ┴└─┘ ┴ └─┘┴└─└─┘─┴┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		envFile string
		verbose bool
	)

	root := &cobra.Command{
		Use:   "remastered",
		Short: "Server-rendered Go web apps with file-based routes",
		Long: `Remastered renders Go web applications on the server.

Routes are Go files under app/routes. Each file may export a Loader,
an Action, Headers, Meta, a Handle and a Page. Server-only exports are
split out of the browser build.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the command runs")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		devCmd(),
		buildCmd(),
		genCmd(),
		routesCmd(),
		exportCmd(),
		versionCmd(),
	)
	return root
}

// loadEnv loads envFile into the process environment. A missing default
// file is fine; variables already set win.
func loadEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return errors.New("R150").WithDetail("Failed to load " + envFile).Wrap(err)
	}
	return nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
