package automation

import "errors"

var (
	// ErrRunActive is returned by Manager.Start while another run is active.
	ErrRunActive = errors.New("a run is already active")

	// ErrNoCredentials is returned when portal credentials are not configured.
	ErrNoCredentials = errors.New("portal credentials not configured")

	// ErrStopRequested propagates an operator stop out of a wait or step.
	// It marks a normal terminal outcome, not a failure.
	ErrStopRequested = errors.New("stop requested")

	// ErrCheckpointTimeout is returned when a checkpoint page did not clear
	// within its bounded wait. Item-level, never run-fatal by itself.
	ErrCheckpointTimeout = errors.New("checkpoint not resolved within timeout")
)
