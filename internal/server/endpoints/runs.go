package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/internal/automation"
	"github.com/jackzampolin/stockpilot/internal/run"
	"github.com/jackzampolin/stockpilot/internal/svcctx"
)

// StartRunResponse is returned when a run has been accepted.
type StartRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// StartRunEndpoint handles POST /api/runs.
type StartRunEndpoint struct{}

func (e *StartRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/runs", e.handler
}

func (e *StartRunEndpoint) Protected() bool { return true }

func (e *StartRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runs := svcctx.RunsFrom(r.Context())
	if runs == nil {
		writeError(w, http.StatusInternalServerError, "run manager not initialized")
		return
	}

	cfg := run.DefaultConfig()
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}

	id, err := runs.Start(r.Context(), cfg)
	if err != nil {
		switch {
		case errors.Is(err, automation.ErrRunActive):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, StartRunResponse{RunID: id, Status: string(run.StatusRunning)})
}

func (e *StartRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		template    string
		description string
		speed       string
		count       int
		pauseEvery  int
		pauseSecs   int
		onDuplicate string
		aiGenerated bool
		release     bool
		exclusive   bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a submission run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := run.DefaultConfig()
			cfg.Template = run.Template(template)
			cfg.ManualDescription = description
			cfg.Speed = run.SpeedProfile(speed)
			cfg.TargetCount = count
			cfg.PauseEvery = pauseEvery
			cfg.PauseSeconds = pauseSecs
			cfg.OnDuplicate = run.DuplicatePolicy(onDuplicate)
			cfg.AIGenerated = aiGenerated
			cfg.ModelRelease = release
			cfg.Exclusive = exclusive

			client := api.NewClient(getServerURL(), api.GetAPIKey())
			var resp StartRunResponse
			if err := client.Post(cmd.Context(), "/api/runs", cfg, &resp); err != nil {
				return err
			}
			fmt.Printf("Run started: %s\n", resp.RunID)
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", string(run.TemplateOne), "description template (none, template1, template2)")
	cmd.Flags().StringVar(&description, "description", "", "manual description suffix")
	cmd.Flags().StringVar(&speed, "speed", string(run.SpeedFast), "delay profile (fast, slow)")
	cmd.Flags().IntVar(&count, "count", 999, "maximum images to process")
	cmd.Flags().IntVar(&pauseEvery, "pause-every", 0, "pause after every N images (0 disables)")
	cmd.Flags().IntVar(&pauseSecs, "pause-seconds", 60, "pause duration in seconds")
	cmd.Flags().StringVar(&onDuplicate, "on-duplicate", string(run.DuplicateSkip), "duplicate policy (skip, stop)")
	cmd.Flags().BoolVar(&aiGenerated, "ai-generated", false, "mark images as AI generated")
	cmd.Flags().BoolVar(&release, "model-release", false, "attach model release")
	cmd.Flags().BoolVar(&exclusive, "exclusive", false, "mark images as exclusive")
	return cmd
}

// StopRunResponse reports whether a stop request took effect.
type StopRunResponse struct {
	Stopping bool   `json:"stopping"`
	Status   string `json:"status"`
}

// StopRunEndpoint handles POST /api/runs/stop.
type StopRunEndpoint struct{}

func (e *StopRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/runs/stop", e.handler
}

func (e *StopRunEndpoint) Protected() bool { return true }

func (e *StopRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runs := svcctx.RunsFrom(r.Context())
	if runs == nil {
		writeError(w, http.StatusInternalServerError, "run manager not initialized")
		return
	}

	stopping := runs.Stop()
	snap := runs.Status()
	writeJSON(w, http.StatusOK, StopRunResponse{Stopping: stopping, Status: string(snap.Status)})
}

func (e *StopRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Request the active run to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL(), api.GetAPIKey())
			var resp StopRunResponse
			if err := client.Post(cmd.Context(), "/api/runs/stop", nil, &resp); err != nil {
				return err
			}
			if resp.Stopping {
				fmt.Println("Stop requested")
			} else {
				fmt.Printf("No active run (status: %s)\n", resp.Status)
			}
			return nil
		},
	}
}

// RunStatusEndpoint handles GET /api/runs/status.
type RunStatusEndpoint struct{}

func (e *RunStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs/status", e.handler
}

func (e *RunStatusEndpoint) Protected() bool { return true }

func (e *RunStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	runs := svcctx.RunsFrom(r.Context())
	if runs == nil {
		writeError(w, http.StatusInternalServerError, "run manager not initialized")
		return
	}
	writeJSON(w, http.StatusOK, runs.Status())
}

func (e *RunStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-status",
		Short: "Show the current or most recent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL(), api.GetAPIKey())
			var resp run.Snapshot
			if err := client.Get(cmd.Context(), "/api/runs/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
