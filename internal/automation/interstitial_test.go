package automation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/stockpilot/internal/run"
)

func testCheckpoints(page *fakePage, state *run.State) *Checkpoints {
	cp := NewCheckpoints(page, state, testLogger(), 100*time.Millisecond)
	cp.challengeHold = time.Millisecond
	cp.settle = time.Millisecond
	cp.poll = time.Millisecond
	return cp
}

func TestResolveChallenge(t *testing.T) {
	t.Run("no challenge is a fast no-op", func(t *testing.T) {
		page := newFakePage()
		state := run.NewState("test", run.DefaultConfig())
		cp := testCheckpoints(page, state)

		if cp.ResolveChallenge(context.Background(), 1) {
			t.Error("expected no challenge detected")
		}
	})

	t.Run("press and hold clears the challenge", func(t *testing.T) {
		page := newFakePage()
		page.challengeVisible = true
		state := run.NewState("test", run.DefaultConfig())
		cp := testCheckpoints(page, state)

		if !cp.ResolveChallenge(context.Background(), 1) {
			t.Error("expected challenge detected")
		}
		if visible, _ := page.Visible(context.Background(), "text=Press & Hold"); visible {
			t.Error("expected challenge gone after gesture")
		}

		snap := state.Snapshot()
		if len(snap.Events) == 0 {
			t.Fatal("expected a detection event")
		}
		if snap.Events[0].Severity != run.SeverityWarning {
			t.Errorf("expected warning severity, got %s", snap.Events[0].Severity)
		}
	})
}

func TestAwaitVerification(t *testing.T) {
	t.Run("passes through when not on verification page", func(t *testing.T) {
		page := newFakePage()
		state := run.NewState("test", run.DefaultConfig())
		cp := testCheckpoints(page, state)

		if err := cp.AwaitVerification(context.Background(), 4); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("waits until the page moves on", func(t *testing.T) {
		page := newFakePage()
		page.secureLogin = true
		state := run.NewState("test", run.DefaultConfig())
		cp := testCheckpoints(page, state)

		time.AfterFunc(10*time.Millisecond, func() {
			page.mu.Lock()
			page.secureLogin = false
			page.mu.Unlock()
		})

		if err := cp.AwaitVerification(context.Background(), 4); err != nil {
			t.Errorf("expected wait to resolve, got %v", err)
		}
	})

	t.Run("times out when verification never completes", func(t *testing.T) {
		page := newFakePage()
		page.secureLogin = true
		state := run.NewState("test", run.DefaultConfig())
		cp := testCheckpoints(page, state)

		err := cp.AwaitVerification(context.Background(), 4)
		if !errors.Is(err, ErrCheckpointTimeout) {
			t.Errorf("expected ErrCheckpointTimeout, got %v", err)
		}
	})

	t.Run("stop request ends the wait", func(t *testing.T) {
		page := newFakePage()
		page.secureLogin = true
		state := run.NewState("test", run.DefaultConfig())
		cp := NewCheckpoints(page, state, testLogger(), 30*time.Second)
		cp.poll = time.Millisecond

		time.AfterFunc(10*time.Millisecond, state.RequestStop)

		start := time.Now()
		err := cp.AwaitVerification(context.Background(), 4)
		if !errors.Is(err, ErrStopRequested) {
			t.Errorf("expected ErrStopRequested, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Errorf("stop took %s to end the wait", time.Since(start))
		}
	})
}
