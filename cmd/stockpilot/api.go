package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/internal/server/endpoints"
)

var (
	serverURL string
	apiKey    string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running stockpilot server via HTTP.

These commands require a running server (stockpilot serve).
Use --server to specify a custom server URL and --api-key when the
server requires one.

Examples:
  stockpilot api health                 # Check server health
  stockpilot api runs start             # Start a submission run
  stockpilot api runs run-status        # Watch the active run
  stockpilot api runs stop              # Ask the run to stop`,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run management commands",
}

func envAPIKey() string {
	return os.Getenv("STOCKPILOT_API_KEY")
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Persistent so all subcommands inherit them
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)
	apiCmd.PersistentFlags().StringVar(
		&apiKey, "api-key", "", "API key for protected endpoints (or STOCKPILOT_API_KEY)",
	)

	apiCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
		key := apiKey
		if key == "" {
			key = envAPIKey()
		}
		api.SetAPIKey(key)
	}

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Runs as subcommand group
	runsCmd.AddCommand((&endpoints.StartRunEndpoint{}).Command(getServerURL))
	runsCmd.AddCommand((&endpoints.StopRunEndpoint{}).Command(getServerURL))
	runsCmd.AddCommand((&endpoints.RunStatusEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(apiCmd)
}
