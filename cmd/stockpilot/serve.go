package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stockpilot/internal/config"
	"github.com/jackzampolin/stockpilot/internal/driver"
	"github.com/jackzampolin/stockpilot/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stockpilot server",
	Long: `Start the stockpilot HTTP server.

This starts both the HTTP API server and the browser driver container.
When the server shuts down (via Ctrl+C or SIGTERM), the driver container
is also stopped.

Examples:
  stockpilot serve                    # Start on default port 8080
  stockpilot serve --port 3000        # Start on custom port
  stockpilot serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Load configuration with hot reload
		cfgMgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgMgr.WatchConfig()
		appCfg := cfgMgr.Get()

		// Flags win over the config file
		host := appCfg.Server.Host
		port := appCfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host: host,
			Port: port,
			DriverConfig: driver.DockerConfig{
				ContainerName: appCfg.Driver.ContainerName,
				Image:         appCfg.Driver.Image,
				HostPort:      appCfg.Driver.Port,
				Headless:      appCfg.Driver.Headless,
			},
			ConfigManager: cfgMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
