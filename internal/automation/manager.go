package automation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jackzampolin/stockpilot/internal/browser"
	"github.com/jackzampolin/stockpilot/internal/run"
)

// SessionFactory opens a fresh browser page session for a run. The returned
// closer releases the session when the run ends.
type SessionFactory func(ctx context.Context) (browser.Page, func() error, error)

// Manager owns the at-most-one-active-run invariant. Start launches the
// orchestrator on its own goroutine and returns immediately; Stop sets the
// cooperative cancellation flag; Status snapshots the current (or last) run
// without ever blocking the worker. The browser session and duplicate
// tracker belong to the worker alone, so concurrent runs are rejected, not
// queued.
type Manager struct {
	portal     Portal
	analyzer   Analyzer
	newSession SessionFactory
	logger     *slog.Logger
	opts       Options

	mu      sync.Mutex
	current *run.State
}

// NewManager creates a run manager. analyzer may be nil.
func NewManager(portal Portal, analyzer Analyzer, newSession SessionFactory, logger *slog.Logger, opts Options) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		portal:     portal,
		analyzer:   analyzer,
		newSession: newSession,
		logger:     logger,
		opts:       opts,
	}
}

// Start validates the configuration and launches a run. It returns the new
// run's ID, or ErrRunActive if a run is in flight, without waiting for any
// remote work.
func (m *Manager) Start(ctx context.Context, cfg run.Config) (string, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.portal.Username == "" || m.portal.Password == "" {
		return "", ErrNoCredentials
	}
	if m.current != nil && !m.current.Status().Terminal() {
		return "", ErrRunActive
	}
	portal := m.portal

	state := run.NewState(uuid.NewString(), cfg)
	m.current = state
	m.logger.Info("run started", "run_id", state.ID(),
		"template", cfg.Template, "target", cfg.TargetCount, "on_duplicate", cfg.OnDuplicate)

	// The worker outlives the request that started it; detach its
	// lifetime from the caller's context.
	go m.execute(context.WithoutCancel(ctx), state, portal)
	return state.ID(), nil
}

// Stop requests cancellation of the active run. Returns false (a no-op)
// when no run is active.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	state := m.current
	m.mu.Unlock()

	if state == nil || state.Status().Terminal() {
		return false
	}
	state.RequestStop()
	state.Append(-1, run.SeverityWarning, "Stop requested, run will halt at the next step boundary...")
	m.logger.Info("stop requested", "run_id", state.ID())
	return true
}

// Status returns a snapshot of the current or most recent run, or an idle
// snapshot if none has started.
func (m *Manager) Status() run.Snapshot {
	m.mu.Lock()
	state := m.current
	m.mu.Unlock()

	if state == nil {
		return run.IdleSnapshot()
	}
	return state.Snapshot()
}

// Active reports whether a run is currently in flight.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && !m.current.Status().Terminal()
}

// SetPortal replaces the portal settings used by future runs. The active
// run, if any, keeps the settings it started with.
func (m *Manager) SetPortal(p Portal) {
	m.mu.Lock()
	m.portal = p
	m.mu.Unlock()
}

// execute is the worker goroutine body: open a session, run the
// orchestrator, release the session.
func (m *Manager) execute(ctx context.Context, state *run.State, portal Portal) {
	page, closer, err := m.newSession(ctx)
	if err != nil {
		state.Finish(run.StatusFailed, "Failed to open browser session: "+err.Error(), run.SeverityError)
		m.logger.Error("browser session unavailable", "run_id", state.ID(), "error", err)
		return
	}
	defer func() {
		if cerr := closer(); cerr != nil {
			m.logger.Warn("failed to close browser session", "error", cerr)
		}
	}()

	orch := New(page, portal, state, m.analyzer, m.logger, m.opts)
	_ = orch.Run(ctx)

	processed, succeeded := state.Counts()
	m.logger.Info("run finished", "run_id", state.ID(),
		"status", state.Status(), "processed", processed, "successful", succeeded)
}
