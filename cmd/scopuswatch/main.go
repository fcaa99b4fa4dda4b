package main

import (
	"fmt"
	"os"

	"github.com/cserlab/scopuswatch/cmd/scopuswatch/commands"
	"github.com/cserlab/scopuswatch/internal/config"
	"github.com/cserlab/scopuswatch/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	// Create config placeholder
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "scopuswatch",
		Short: "Monitor and rotate Elsevier Scopus API credentials",
		Long: `scopuswatch keeps the Scopus API credentials used by the ingestion
pipeline healthy: it checks them on a schedule, warns the administrator
before they expire, and serves a passcode-gated web flow for rotating
them remotely.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger with parsed flags
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "scopuswatch.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewCheckCommand(cfg),
		commands.NewServeCommand(cfg),
		commands.NewStatusCommand(cfg),
		commands.NewPasscodeCommand(cfg),
	)

	return rootCmd.Execute()
}
