package automation

import (
	"math/rand"
	"time"

	"github.com/jackzampolin/stockpilot/internal/run"
)

// DelayFor returns a randomized human-like wait for the given speed profile:
// 5-10s for fast, 10-15s for slow.
func DelayFor(profile run.SpeedProfile) time.Duration {
	if profile == run.SpeedSlow {
		return time.Duration(10+rand.Intn(6)) * time.Second
	}
	return time.Duration(5+rand.Intn(6)) * time.Second
}
