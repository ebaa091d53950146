package automation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/stockpilot/internal/browser"
	"github.com/jackzampolin/stockpilot/internal/run"
)

// Checkpoints recognizes and waits out the portal's two known interstitials:
// the press-and-hold automation-detection challenge and the secure-login
// verification page. Neither is solved programmatically beyond the one
// scripted gesture; both waits are bounded and observe the run's stop flag.
type Checkpoints struct {
	page   browser.Page
	state  *run.State
	logger *slog.Logger

	challengeHold time.Duration // how long the press-and-hold gesture is held
	settle        time.Duration // pause after the gesture before re-checking
	waitTimeout   time.Duration // bound on the manual-resolution wait
	poll          time.Duration // stop-flag / page poll interval
}

// NewCheckpoints creates a handler with the given wait bound. A zero
// waitTimeout selects the 60s default.
func NewCheckpoints(page browser.Page, state *run.State, logger *slog.Logger, waitTimeout time.Duration) *Checkpoints {
	if waitTimeout <= 0 {
		waitTimeout = 60 * time.Second
	}
	return &Checkpoints{
		page:          page,
		state:         state,
		logger:        logger,
		challengeHold: 5 * time.Second,
		settle:        3 * time.Second,
		waitTimeout:   waitTimeout,
		poll:          250 * time.Millisecond,
	}
}

// ResolveChallenge checks for the press-and-hold challenge and attempts the
// scripted gesture once. Detection failures are swallowed: the challenge not
// being present is the common case and never worth failing a step over.
// Returns true if a challenge was detected.
func (c *Checkpoints) ResolveChallenge(ctx context.Context, step int) bool {
	visible, err := c.page.Visible(ctx, browser.SelChallengeButton)
	if err != nil || !visible {
		return false
	}

	c.state.Append(step, run.SeverityWarning, "Bot protection detected. Attempting to solve...")
	c.logger.Warn("automation-detection challenge encountered", "step", step)

	if err := c.page.PressAndHold(ctx, browser.SelChallengeButton, c.challengeHold); err != nil {
		c.logger.Warn("press-and-hold gesture failed", "error", err)
		return true
	}
	c.pause(ctx, c.settle)
	return true
}

// Resolve clears whatever checkpoint currently blocks the page. The
// challenge gets one scripted attempt; if it persists, and for the
// secure-login page always, Resolve enters a bounded manual wait polling for
// the page to move on. Returns ErrStopRequested if the operator stops during
// the wait and ErrCheckpointTimeout if the bound elapses.
func (c *Checkpoints) Resolve(ctx context.Context, step int) error {
	if c.ResolveChallenge(ctx, step) {
		if err := c.awaitGone(ctx, step); err != nil {
			return err
		}
	}
	return c.AwaitVerification(ctx, step)
}

// AwaitVerification handles the secure-login verification page, which only a
// human can complete. If the current location is the verification page it
// waits, polling, until the location changes or the bound elapses.
func (c *Checkpoints) AwaitVerification(ctx context.Context, step int) error {
	loc, err := c.page.Location(ctx)
	if err != nil || !strings.Contains(loc, browser.SecureLoginMarker) {
		return nil
	}

	c.state.Append(step, run.SeverityWarning, "Security verification page detected - please complete manually")
	c.state.Append(step, run.SeverityInfo,
		"Waiting for verification to be completed (up to "+c.waitTimeout.String()+")...")
	c.logger.Warn("secure-login verification detected", "step", step, "timeout", c.waitTimeout)

	deadline := time.Now().Add(c.waitTimeout)
	for time.Now().Before(deadline) {
		if c.state.StopRequested() {
			return ErrStopRequested
		}
		if err := sleepCtx(ctx, c.poll); err != nil {
			return err
		}
		loc, err := c.page.Location(ctx)
		if err != nil {
			continue
		}
		if !strings.Contains(loc, browser.SecureLoginMarker) {
			c.state.Append(step, run.SeverityInfo, "Verification completed, continuing...")
			return nil
		}
	}

	c.state.Append(step, run.SeverityWarning, "Still on verification page after timeout")
	return ErrCheckpointTimeout
}

// awaitGone waits for a persisting challenge to disappear, bounded and
// stop-aware like the verification wait.
func (c *Checkpoints) awaitGone(ctx context.Context, step int) error {
	deadline := time.Now().Add(c.waitTimeout)
	for time.Now().Before(deadline) {
		if c.state.StopRequested() {
			return ErrStopRequested
		}
		visible, err := c.page.Visible(ctx, browser.SelChallengeButton)
		if err == nil && !visible {
			return nil
		}
		if err := sleepCtx(ctx, c.poll); err != nil {
			return err
		}
	}
	c.state.Append(step, run.SeverityWarning, "Challenge still present after timeout")
	return ErrCheckpointTimeout
}

// pause sleeps without failing; used for settle delays where an interrupted
// sleep is fine.
func (c *Checkpoints) pause(ctx context.Context, d time.Duration) {
	_ = sleepCtx(ctx, d)
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
