// Package automation contains the run orchestrator: the state machine that
// authenticates against the portal, walks the upload queue, and processes
// items until the target count is reached, the queue drains, a duplicate-stop
// triggers, or the operator cancels.
//
// Failure semantics are deliberately asymmetric. Authentication failures and
// exhausted navigation retries fail the whole run; everything inside the
// per-item loop degrades to a per-item failure and the loop continues.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/stockpilot/internal/browser"
	"github.com/jackzampolin/stockpilot/internal/enhance"
	"github.com/jackzampolin/stockpilot/internal/run"
)

// Analyzer produces a best-effort title/description for an item image.
// Implementations must bound their own attempt; the orchestrator never
// retries analysis.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*enhance.AIResult, error)
}

// Portal holds the target site's URLs and credentials.
type Portal struct {
	BaseURL   string
	LoginURL  string
	UploadURL string
	Username  string
	Password  string
}

// Options tune the orchestrator's timing and retry behavior. The zero value
// selects production defaults; tests shrink the durations.
type Options struct {
	// Delay overrides the delay policy. Defaults to DelayFor.
	Delay func(run.SpeedProfile) time.Duration
	// Settle is the pause after page-mutating interactions.
	Settle time.Duration
	// TypeDelay is the per-keystroke delay when entering credentials.
	TypeDelay time.Duration
	// NavAttempts bounds queue-navigation retries.
	NavAttempts uint
	// CheckpointWait bounds interstitial manual-resolution waits.
	CheckpointWait time.Duration
	// Poll is the stop-flag poll interval inside waits.
	Poll time.Duration
}

func (o *Options) applyDefaults() {
	if o.Delay == nil {
		o.Delay = DelayFor
	}
	if o.Settle <= 0 {
		o.Settle = 2 * time.Second
	}
	if o.TypeDelay <= 0 {
		o.TypeDelay = 100 * time.Millisecond
	}
	if o.NavAttempts == 0 {
		o.NavAttempts = 3
	}
	if o.CheckpointWait <= 0 {
		o.CheckpointWait = 60 * time.Second
	}
	if o.Poll <= 0 {
		o.Poll = 100 * time.Millisecond
	}
}

// maxConsecutiveFailures bounds back-to-back iteration failures before the
// session is considered lost and the run fails.
const maxConsecutiveFailures = 3

// Orchestrator executes one run against an exclusively-owned page session.
type Orchestrator struct {
	page        browser.Page
	portal      Portal
	cfg         run.Config
	state       *run.State
	tracker     *Tracker
	checkpoints *Checkpoints
	analyzer    Analyzer
	logger      *slog.Logger
	opts        Options
}

// New creates an orchestrator for the given run state. analyzer may be nil
// when image analysis is not configured.
func New(page browser.Page, portal Portal, state *run.State, analyzer Analyzer, logger *slog.Logger, opts Options) *Orchestrator {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	cp := NewCheckpoints(page, state, logger, opts.CheckpointWait)
	cp.poll = opts.Poll
	return &Orchestrator{
		page:        page,
		portal:      portal,
		cfg:         state.Config(),
		state:       state,
		tracker:     NewTracker(),
		checkpoints: cp,
		analyzer:    analyzer,
		logger:      logger,
		opts:        opts,
	}
}

// Run executes the full run and always leaves the state in a terminal
// status. The returned error is the run-fatal cause, nil for completed runs.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.authenticate(ctx); err != nil {
		return o.fatal(err)
	}
	if err := o.openQueue(ctx); err != nil {
		return o.fatal(err)
	}
	o.processQueue(ctx)
	return nil
}

// fatal routes a step error to the right terminal status: operator stops
// complete normally, everything else fails the run.
func (o *Orchestrator) fatal(err error) error {
	if errors.Is(err, ErrStopRequested) || errors.Is(err, context.Canceled) {
		o.finishStopped()
		return nil
	}
	processed, succeeded := o.state.Counts()
	o.state.Finish(run.StatusFailed,
		fmt.Sprintf("Run failed: %v (processed: %d, successful: %d)", err, processed, succeeded),
		run.SeverityError)
	o.logger.Error("run failed", "run_id", o.state.ID(), "error", err)
	return err
}

func (o *Orchestrator) finishStopped() {
	processed, succeeded := o.state.Counts()
	o.state.Finish(run.StatusCompleted,
		fmt.Sprintf("Stopped by operator (processed: %d, successful: %d)", processed, succeeded),
		run.SeverityWarning)
	o.logger.Info("run stopped by operator", "run_id", o.state.ID(), "processed", processed)
}

// authenticate signs in to the portal. Any failure here is run-fatal:
// credential problems are not transient and a broken session is not worth
// continuing with.
func (o *Orchestrator) authenticate(ctx context.Context) error {
	if o.state.StopRequested() {
		return ErrStopRequested
	}

	o.state.Append(1, run.SeverityInfo, "Navigating to portal...")
	if err := o.page.Navigate(ctx, o.portal.BaseURL); err != nil {
		return fmt.Errorf("navigation to portal failed: %w", err)
	}
	o.checkpoints.ResolveChallenge(ctx, 1)

	if err := o.openLoginForm(ctx); err != nil {
		return err
	}
	if o.state.StopRequested() {
		return ErrStopRequested
	}

	o.state.Append(3, run.SeverityInfo, "Entering username...")
	o.checkpoints.ResolveChallenge(ctx, 3)
	if err := o.awaitLoginForm(ctx); err != nil {
		return err
	}
	if err := o.page.Fill(ctx, browser.SelUsernameInput, ""); err != nil {
		return fmt.Errorf("username field not writable: %w", err)
	}
	if err := o.page.Type(ctx, browser.SelUsernameInput, o.portal.Username, o.opts.TypeDelay); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}

	o.state.Append(4, run.SeverityInfo, "Entering password and signing in...")
	if err := o.page.Fill(ctx, browser.SelPasswordInput, ""); err != nil {
		return fmt.Errorf("password field not writable: %w", err)
	}
	if err := o.page.Type(ctx, browser.SelPasswordInput, o.portal.Password, o.opts.TypeDelay); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}
	if err := o.page.Click(ctx, browser.SelLoginSubmit); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		return err
	}

	// Bot protection can reappear right after login, and the portal may
	// punt to its secure-login verification page.
	o.checkpoints.ResolveChallenge(ctx, 4)
	if err := o.checkpoints.AwaitVerification(ctx, 4); err != nil {
		if errors.Is(err, ErrStopRequested) {
			return err
		}
		// Verification still pending is not proof login failed; the queue
		// navigation below settles the question.
		o.logger.Warn("secure-login verification unresolved after login", "error", err)
	}

	o.state.Append(4, run.SeverityInfo, "Login submitted")
	return nil
}

// openLoginForm clicks the sign-in trigger unless the portal already
// redirected to a login page.
func (o *Orchestrator) openLoginForm(ctx context.Context) error {
	o.state.Append(2, run.SeverityInfo, "Looking for sign-in button...")

	if loc, err := o.page.Location(ctx); err == nil && strings.Contains(loc, "login") {
		o.state.Append(2, run.SeverityInfo, "Already on login page")
		return nil
	}

	if err := o.page.Click(ctx, browser.SelSignInButton); err != nil {
		// The click target may be hidden behind the challenge.
		o.checkpoints.ResolveChallenge(ctx, 2)
		if loc, lerr := o.page.Location(ctx); lerr == nil && strings.Contains(loc, "login") {
			return nil
		}
		if err := o.page.Click(ctx, browser.SelSignInButton); err != nil {
			return fmt.Errorf("sign-in button not found: %w", err)
		}
	}
	return o.wait(ctx, o.opts.Settle)
}

// awaitLoginForm waits for the username field, extending the wait to the
// checkpoint bound when it does not appear promptly (a captcha may be in the
// way and needs a human).
func (o *Orchestrator) awaitLoginForm(ctx context.Context) error {
	if err := o.page.WaitVisible(ctx, browser.SelUsernameInput, 10*time.Second); err == nil {
		return nil
	}

	o.state.Append(3, run.SeverityWarning, "Login form not visible - waiting for manual captcha resolution...")
	deadline := time.Now().Add(o.opts.CheckpointWait)
	for time.Now().Before(deadline) {
		if o.state.StopRequested() {
			return ErrStopRequested
		}
		if visible, err := o.page.Visible(ctx, browser.SelUsernameInput); err == nil && visible {
			return nil
		}
		if err := sleepCtx(ctx, o.opts.Poll); err != nil {
			return err
		}
	}
	return fmt.Errorf("login form did not appear within %s", o.opts.CheckpointWait)
}

// openQueue loads the upload listing, retrying transient failures a bounded
// number of times with delay-policy spacing.
func (o *Orchestrator) openQueue(ctx context.Context) error {
	o.state.Append(5, run.SeverityInfo, "Opening upload queue...")

	err := retry.Do(
		func() error {
			if o.state.StopRequested() {
				return retry.Unrecoverable(ErrStopRequested)
			}
			return o.page.Navigate(ctx, o.portal.UploadURL)
		},
		retry.Context(ctx),
		retry.Attempts(o.opts.NavAttempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return o.opts.Delay(o.cfg.Speed)
		}),
		retry.OnRetry(func(n uint, err error) {
			o.state.Append(5, run.SeverityWarning,
				fmt.Sprintf("Queue navigation attempt %d failed: %v", n+1, err))
		}),
	)
	if err != nil {
		if errors.Is(err, ErrStopRequested) {
			return ErrStopRequested
		}
		return fmt.Errorf("failed to open upload queue after %d attempts: %w", o.opts.NavAttempts, err)
	}

	if count, err := o.page.Text(ctx, browser.SelUploadCount); err == nil && count != "" {
		o.state.Append(5, run.SeverityInfo, fmt.Sprintf("Found %s image(s) uploaded", strings.TrimSpace(count)))
	}
	return nil
}

// processQueue is the per-item loop. It always leaves the run in a terminal
// status.
func (o *Orchestrator) processQueue(ctx context.Context) {
	consecutiveFailures := 0

	for {
		if o.state.StopRequested() {
			o.finishStopped()
			return
		}

		processed, succeeded := o.state.Counts()
		if processed >= o.cfg.TargetCount {
			o.state.Finish(run.StatusCompleted,
				fmt.Sprintf("Target reached (processed: %d, successful: %d)", processed, succeeded),
				run.SeverityInfo)
			return
		}

		remaining, err := o.page.Count(ctx, browser.SelReadyItem)
		if err != nil {
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveFailures {
				_ = o.fatal(fmt.Errorf("queue listing unreachable: %w", err))
				return
			}
			o.state.Append(6, run.SeverityWarning, fmt.Sprintf("Failed to read queue: %v", err))
			o.recoverToQueue(ctx)
			continue
		}
		if remaining == 0 {
			o.state.Finish(run.StatusCompleted,
				fmt.Sprintf("Queue exhausted (processed: %d, successful: %d)", processed, succeeded),
				run.SeverityInfo)
			return
		}

		done, err := o.processItem(ctx, processed)
		switch {
		case errors.Is(err, ErrStopRequested), errors.Is(err, context.Canceled):
			o.finishStopped()
			return
		case err != nil:
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveFailures {
				_ = o.fatal(fmt.Errorf("session lost: %w", err))
				return
			}
			o.state.Append(6, run.SeverityError,
				fmt.Sprintf("Error processing image %d: %v", processed+1, err))
			o.recoverToQueue(ctx)
			continue
		default:
			consecutiveFailures = 0
		}
		if done {
			return
		}

		if err := o.interItemDelay(ctx); err != nil {
			o.finishStopped()
			return
		}
		o.recoverToQueue(ctx)
	}
}

// processItem opens the next queue item and runs it through enhancement,
// flags, and submission. Returns done=true when the item triggered a
// terminal transition (duplicate-stop). Submission failures are recorded
// per-item, not returned; returned errors mean the iteration itself broke
// (stale page, lost session) and the caller decides whether to recover.
func (o *Orchestrator) processItem(ctx context.Context, index int) (done bool, err error) {
	o.state.Append(6, run.SeverityInfo,
		fmt.Sprintf("Processing image %d of %d", index+1, o.cfg.TargetCount))

	if err := o.page.Click(ctx, browser.SelEditLink); err != nil {
		return false, fmt.Errorf("failed to open item editor: %w", err)
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		return false, err
	}

	item, err := o.readItem(ctx)
	if err != nil {
		return false, err
	}

	if item.id != "" && o.tracker.Seen(item.id) {
		if o.cfg.OnDuplicate == run.DuplicateStop {
			processed, succeeded := o.state.Counts()
			o.state.Finish(run.StatusCompleted,
				fmt.Sprintf("Duplicate encountered, stopping as configured: %s (processed: %d, successful: %d)",
					item.id, processed, succeeded),
				run.SeverityWarning)
			return true, nil
		}
		o.state.RecordProcessed(false, 6, run.SeverityWarning,
			fmt.Sprintf("Skipping duplicate image: %s", item.id))
		o.advancePastItem(ctx)
		return false, nil
	}

	if err := o.enhanceItem(ctx, item); err != nil {
		if errors.Is(err, ErrStopRequested) || errors.Is(err, context.Canceled) {
			return false, err
		}
		o.state.RecordProcessed(false, 7, run.SeverityError,
			fmt.Sprintf("Failed to prepare metadata for %s: %v", item.id, err))
		o.advancePastItem(ctx)
		return false, nil
	}

	o.applyFlags(ctx)

	if err := o.submit(ctx); err != nil {
		if errors.Is(err, ErrStopRequested) || errors.Is(err, context.Canceled) {
			return false, err
		}
		o.state.RecordProcessed(false, 8, run.SeverityError,
			fmt.Sprintf("Failed to submit %s: %v", item.id, err))
		return false, nil
	}

	if item.id != "" {
		o.tracker.Record(item.id)
	}
	o.state.RecordProcessed(true, 8, run.SeverityInfo,
		fmt.Sprintf("Image submitted successfully: %s", item.id))
	o.logProgress()
	return false, nil
}

// item is the ephemeral descriptor for one queue entry.
type item struct {
	id          string
	title       string
	description string
}

func (o *Orchestrator) readItem(ctx context.Context) (*item, error) {
	it := &item{}

	if id, err := o.page.Text(ctx, browser.SelOriginalFilename); err == nil {
		it.id = strings.TrimSpace(id)
	}
	title, err := o.page.Value(ctx, browser.SelTitleInput)
	if err != nil {
		return nil, fmt.Errorf("failed to read title field: %w", err)
	}
	desc, err := o.page.Value(ctx, browser.SelDescriptionInput)
	if err != nil {
		return nil, fmt.Errorf("failed to read description field: %w", err)
	}
	it.title = strings.TrimSpace(title)
	it.description = strings.TrimSpace(desc)
	return it, nil
}

// enhanceItem produces the final metadata and writes it into the form. When
// both fields are empty it asks the analyzer (if configured) for a generated
// title and description; analyzer failures degrade to whatever the enhancer
// can derive, and an item with no usable metadata at all is an error.
func (o *Orchestrator) enhanceItem(ctx context.Context, it *item) error {
	var ai *enhance.AIResult
	if it.title == "" && it.description == "" {
		if o.analyzer == nil {
			return errors.New("empty title and description, no analyzer configured")
		}
		o.state.Append(7, run.SeverityInfo, "Empty metadata - analyzing image...")
		img, err := o.page.Screenshot(ctx, browser.SelItemImage)
		if err != nil {
			return fmt.Errorf("failed to capture item image: %w", err)
		}
		res, err := o.analyzer.Analyze(ctx, img)
		if err != nil {
			return fmt.Errorf("image analysis failed: %w", err)
		}
		ai = res
		o.state.Append(7, run.SeverityInfo, "AI generated: "+truncate(res.Title, 40))
	}

	final := enhance.Apply(enhance.Input{Title: it.title, Description: it.description}, o.cfg, ai)
	if final.Title == "" {
		return errors.New("no usable title could be derived")
	}

	if err := o.page.Fill(ctx, browser.SelTitleInput, final.Title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	if err := o.page.Fill(ctx, browser.SelDescriptionInput, final.Description); err != nil {
		return fmt.Errorf("failed to set description: %w", err)
	}
	o.state.Append(7, run.SeverityInfo, "Title set: "+truncate(final.Title, 50))
	return nil
}

// applyFlags applies the configured submission flags. Each is best-effort;
// a missed flag is logged and the submission proceeds.
func (o *Orchestrator) applyFlags(ctx context.Context) {
	if o.cfg.AIGenerated {
		if err := o.markAIGenerated(ctx); err != nil {
			o.state.Append(7, run.SeverityWarning, fmt.Sprintf("AI categorization failed: %v", err))
		}
	}
	if o.cfg.ModelRelease {
		if err := o.attachModelRelease(ctx); err != nil {
			o.state.Append(7, run.SeverityWarning, fmt.Sprintf("Model release failed: %v", err))
		}
	}
	if o.cfg.Exclusive {
		if err := o.markExclusive(ctx); err != nil {
			o.state.Append(7, run.SeverityWarning, fmt.Sprintf("Exclusive marking failed: %v", err))
		}
	}
}

func (o *Orchestrator) markAIGenerated(ctx context.Context) error {
	if visible, err := o.page.Visible(ctx, browser.SelRemoveCategory); err == nil && visible {
		_ = o.page.Click(ctx, browser.SelRemoveCategory)
		_ = o.wait(ctx, o.opts.Settle)
	}
	if err := o.page.SelectOption(ctx, browser.SelCategorySelect, browser.AICategoryValue); err != nil {
		return err
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		return err
	}
	return o.page.SelectOption(ctx, browser.SelSubcategory, browser.AISubcategoryValue)
}

func (o *Orchestrator) attachModelRelease(ctx context.Context) error {
	if err := o.page.Click(ctx, browser.SelModelReleaseBtn); err != nil {
		return err
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		return err
	}
	return o.page.Click(ctx, browser.SelModelReleaseItem)
}

func (o *Orchestrator) markExclusive(ctx context.Context) error {
	if err := o.page.Click(ctx, browser.SelExclusiveToggle); err != nil {
		return err
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		return err
	}
	if visible, err := o.page.Visible(ctx, browser.SelConfirmButton); err == nil && visible {
		return o.page.Click(ctx, browser.SelConfirmButton)
	}
	return nil
}

// submit clicks the submission button. A recognized interstitial suspends
// the step until the checkpoint handler resolves it, then the submission is
// retried exactly once.
func (o *Orchestrator) submit(ctx context.Context) error {
	o.state.Append(8, run.SeverityInfo, "Submitting image...")
	if err := o.page.Click(ctx, browser.SelSubmitButton); err != nil {
		return fmt.Errorf("submit button not found: %w", err)
	}
	// The click already landed; a stop arriving during the settle pause
	// must not discard the submission. The loop stops at the next boundary.
	if err := o.wait(ctx, o.opts.Settle); err != nil {
		if errors.Is(err, ErrStopRequested) {
			return nil
		}
		return err
	}

	blocked, err := o.checkpointBlocked(ctx)
	if err != nil || !blocked {
		return err
	}
	if err := o.checkpoints.Resolve(ctx, 8); err != nil {
		return err
	}
	if err := o.page.Click(ctx, browser.SelSubmitButton); err != nil {
		return fmt.Errorf("submit retry failed: %w", err)
	}
	if err := o.wait(ctx, o.opts.Settle); err != nil && !errors.Is(err, ErrStopRequested) {
		return err
	}
	return nil
}

// checkpointBlocked reports whether a known interstitial currently blocks
// the page.
func (o *Orchestrator) checkpointBlocked(ctx context.Context) (bool, error) {
	if visible, err := o.page.Visible(ctx, browser.SelChallengeButton); err == nil && visible {
		return true, nil
	}
	loc, err := o.page.Location(ctx)
	if err != nil {
		return false, nil
	}
	return strings.Contains(loc, browser.SecureLoginMarker), nil
}

// interItemDelay applies the delay policy between items plus the configured
// batch pause. Both waits end promptly on stop.
func (o *Orchestrator) interItemDelay(ctx context.Context) error {
	processed, _ := o.state.Counts()
	if processed >= o.cfg.TargetCount {
		return nil
	}

	delay := o.opts.Delay(o.cfg.Speed)
	o.state.Append(6, run.SeverityInfo, fmt.Sprintf("Waiting %s before next image...", delay))
	if err := o.wait(ctx, delay); err != nil {
		return err
	}

	if o.cfg.PauseEvery > 0 && processed%o.cfg.PauseEvery == 0 {
		pause := time.Duration(o.cfg.PauseSeconds) * time.Second
		o.state.Append(6, run.SeverityInfo, fmt.Sprintf("Pausing for %s...", pause))
		if err := o.wait(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// advancePastItem moves the queue to the next item after a skip; failures
// here are absorbed because the recovery navigation re-lands on the queue
// anyway.
func (o *Orchestrator) advancePastItem(ctx context.Context) {
	if visible, err := o.page.Visible(ctx, browser.SelNextItem); err == nil && visible {
		_ = o.page.Click(ctx, browser.SelNextItem)
		_ = o.wait(ctx, o.opts.Settle)
	}
}

// recoverToQueue navigates back to the upload listing between iterations.
func (o *Orchestrator) recoverToQueue(ctx context.Context) {
	if err := o.page.Navigate(ctx, o.portal.UploadURL); err != nil {
		o.logger.Warn("failed to navigate back to queue", "error", err)
	}
	_ = o.wait(ctx, o.opts.Settle)
}

// wait sleeps for d while polling the stop flag, ending the wait within one
// poll interval of a stop request.
func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if o.state.StopRequested() {
			return ErrStopRequested
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		step := o.opts.Poll
		if remaining < step {
			step = remaining
		}
		if err := sleepCtx(ctx, step); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) logProgress() {
	processed, succeeded := o.state.Counts()
	pct := processed * 100 / o.cfg.TargetCount
	o.state.Append(6, run.SeverityInfo,
		fmt.Sprintf("Progress: %d%% (%d/%d, %d successful)", pct, processed, o.cfg.TargetCount, succeeded))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
