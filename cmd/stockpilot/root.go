package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "stockpilot",
	Short: "Unattended stock-photo submission orchestrator",
	Long: `Stockpilot drives a browser session through a stock-photo portal's
submission workflow without a human at the keyboard.

A run logs in, walks the upload queue, enhances each image's title and
description (template phrases, manual suffixes, or AI vision analysis),
sets the submission flags, and submits - pacing itself with randomized
delays and skipping or stopping on duplicates as configured.

The server exposes an HTTP API to start, stop, and observe runs.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.stockpilot/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
