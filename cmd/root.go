// Package cmd wires the command line: serve, migrate and token.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oumpowerman/thaoshare/config"
	"github.com/spf13/cobra"
)

const programName = "thaoshare"

func Execute() {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Rotating savings circle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), migrateCommand(), tokenCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := config.NewLogger(cfg.Logging).With("component", programName)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
