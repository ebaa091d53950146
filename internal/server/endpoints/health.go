package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/internal/driver"
	"github.com/jackzampolin/stockpilot/internal/svcctx"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) Protected() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL(), "")
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed server status response.
type StatusResponse struct {
	Server string       `json:"server"`
	Driver DriverStatus `json:"driver"`
	Run    RunSummary   `json:"run"`
}

// DriverStatus shows browser-driver container and health status.
type DriverStatus struct {
	Container string `json:"container"`
	Health    string `json:"health"`
	URL       string `json:"url,omitempty"`
}

// RunSummary is the short form of the current run's state.
type RunSummary struct {
	Status    string `json:"status"`
	RunID     string `json:"run_id,omitempty"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// DriverManager is set by the server since it's not in Services.
	DriverManager *driver.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) Protected() bool { return false }

func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if e.DriverManager != nil {
		status, err := e.DriverManager.Status(r.Context())
		if err != nil {
			resp.Driver.Container = "error"
		} else {
			resp.Driver.Container = string(status)
		}
		resp.Driver.URL = e.DriverManager.URL()
	} else {
		resp.Driver.Container = "not_initialized"
	}

	if client := svcctx.DriverClientFrom(r.Context()); client != nil {
		if err := client.HealthCheck(r.Context()); err != nil {
			resp.Driver.Health = "unhealthy"
		} else {
			resp.Driver.Health = "healthy"
		}
	} else {
		resp.Driver.Health = "not_initialized"
	}

	if runs := svcctx.RunsFrom(r.Context()); runs != nil {
		snap := runs.Status()
		resp.Run = RunSummary{
			Status:    string(snap.Status),
			RunID:     snap.RunID,
			Processed: snap.Processed,
			Succeeded: snap.Succeeded,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL(), "")
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
