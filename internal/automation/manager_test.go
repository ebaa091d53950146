package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/stockpilot/internal/browser"
	"github.com/jackzampolin/stockpilot/internal/run"
)

func testManager(page *fakePage) *Manager {
	factory := func(ctx context.Context) (browser.Page, func() error, error) {
		return page, func() error { return nil }, nil
	}
	return NewManager(testPortal, nil, factory, testLogger(), testOptions())
}

func waitTerminal(t *testing.T, m *Manager) run.Snapshot {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		snap := m.Status()
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not reach a terminal status")
	return run.Snapshot{}
}

func TestManagerStart(t *testing.T) {
	page := newFakePage(fakeItem{id: "a.jpg", title: "Alpha", desc: "First"})
	m := testManager(page)

	id, err := m.Start(context.Background(), run.DefaultConfig())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a run id")
	}

	snap := waitTerminal(t, m)
	if snap.RunID != id {
		t.Errorf("snapshot run id %s does not match %s", snap.RunID, id)
	}
	if snap.Status != run.StatusCompleted {
		t.Errorf("expected completed, got %s", snap.Status)
	}
	if snap.Processed != 1 || snap.Succeeded != 1 {
		t.Errorf("expected 1/1, got %d/%d", snap.Processed, snap.Succeeded)
	}
}

func TestManagerRejectsConcurrentRuns(t *testing.T) {
	page := newFakePage(
		fakeItem{id: "a.jpg", title: "Alpha", desc: "First"},
		fakeItem{id: "b.jpg", title: "Beta", desc: "Second"},
	)

	// Hold the worker in the session factory so the first run is
	// deterministically active while the second start is attempted.
	release := make(chan struct{})
	factory := func(ctx context.Context) (browser.Page, func() error, error) {
		<-release
		return page, func() error { return nil }, nil
	}
	m := NewManager(testPortal, nil, factory, testLogger(), testOptions())

	if _, err := m.Start(context.Background(), run.DefaultConfig()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	_, err := m.Start(context.Background(), run.DefaultConfig())
	if !errors.Is(err, ErrRunActive) {
		t.Errorf("expected ErrRunActive, got %v", err)
	}

	close(release)
	waitTerminal(t, m)

	// A terminal run no longer blocks new starts.
	if _, err := m.Start(context.Background(), run.DefaultConfig()); err != nil {
		t.Errorf("start after terminal run failed: %v", err)
	}
	waitTerminal(t, m)
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	m := testManager(newFakePage())

	cfg := run.DefaultConfig()
	cfg.Speed = "warp"
	if _, err := m.Start(context.Background(), cfg); err == nil {
		t.Error("expected validation error")
	}
}

func TestManagerRequiresCredentials(t *testing.T) {
	page := newFakePage()
	factory := func(ctx context.Context) (browser.Page, func() error, error) {
		return page, func() error { return nil }, nil
	}
	m := NewManager(Portal{BaseURL: "https://www.example.com/"}, nil, factory, testLogger(), testOptions())

	_, err := m.Start(context.Background(), run.DefaultConfig())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expected ErrNoCredentials, got %v", err)
	}
}

func TestManagerStop(t *testing.T) {
	t.Run("no active run is a no-op", func(t *testing.T) {
		m := testManager(newFakePage())
		if m.Stop() {
			t.Error("expected stop to report no active run")
		}
		snap := m.Status()
		if snap.Status != run.StatusIdle {
			t.Errorf("expected idle, got %s", snap.Status)
		}
	})

	t.Run("stops an active run", func(t *testing.T) {
		page := newFakePage(
			fakeItem{id: "a.jpg", title: "Alpha", desc: "First"},
			fakeItem{id: "b.jpg", title: "Beta", desc: "Second"},
		)
		release := make(chan struct{})
		factory := func(ctx context.Context) (browser.Page, func() error, error) {
			<-release
			return page, func() error { return nil }, nil
		}
		m := NewManager(testPortal, nil, factory, testLogger(), testOptions())

		if _, err := m.Start(context.Background(), run.DefaultConfig()); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if !m.Stop() {
			t.Error("expected stop to hit the active run")
		}
		close(release)

		snap := waitTerminal(t, m)
		if snap.Status != run.StatusCompleted {
			t.Errorf("expected completed after stop, got %s", snap.Status)
		}
	})
}

func TestManagerSessionFailure(t *testing.T) {
	factory := func(ctx context.Context) (browser.Page, func() error, error) {
		return nil, nil, errors.New("driver unreachable")
	}
	m := NewManager(testPortal, nil, factory, testLogger(), testOptions())

	if _, err := m.Start(context.Background(), run.DefaultConfig()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	snap := waitTerminal(t, m)
	if snap.Status != run.StatusFailed {
		t.Errorf("expected failed, got %s", snap.Status)
	}
}
