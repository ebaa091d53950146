package automation

import (
	"testing"
	"time"

	"github.com/jackzampolin/stockpilot/internal/run"
)

func TestDelayFor(t *testing.T) {
	t.Run("fast profile stays in 5-10s", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			d := DelayFor(run.SpeedFast)
			if d < 5*time.Second || d > 10*time.Second {
				t.Fatalf("fast delay out of range: %s", d)
			}
		}
	})

	t.Run("slow profile stays in 10-15s", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			d := DelayFor(run.SpeedSlow)
			if d < 10*time.Second || d > 15*time.Second {
				t.Fatalf("slow delay out of range: %s", d)
			}
		}
	})
}
