package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/glint-dev/glint/internal/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬  ┬┌┐┌┌┬┐
  │ ┬│  ││││ │
  └─┘┴─┘┴┘└┘ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "glint",
		Short: "Reactive computation graph engine tooling",
		Long: `Glint is a reactive computation graph engine for Go: signals,
cached derivations, and observers with coalesced update cycles.

This CLI benchmarks the engine and serves the live graph inspector.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		benchCmd(),
		inspectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the glint ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// loadConfig reads glint.json from the working directory and builds a
// logger at the configured level.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return cfg, logger, nil
}
