// Package cmd implements the enmark CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/enmark/core/config"
)

var (
	flagConfig   string
	flagLogLevel string

	// cfg holds the effective configuration: defaults, then the config
	// file, then command-line flag overrides.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "enmark",
	Short: "enmark — convert Evernote export archives into Markdown",
	Long: `enmark converts Evernote export archives (ENEX files) into Markdown
files plus extracted attachment files, writing either to stdout or to a
configurable folder layout.

Usage:
  enmark convert <input.enex> [flags]`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// setup loads the config file when one is given and points slog at stderr,
// leaving stdout free for the console sink.
func setup(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		if err := config.Load(flagConfig, cfg); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}
