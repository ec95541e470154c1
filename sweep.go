package inherit

import (
	"context"
	"time"
)

// SweepEvery sweeps the reservations of levels every interval until ctx is
// done. It blocks; run it in its own goroutine.
func SweepEvery(ctx context.Context, interval time.Duration, levels ...*Level) {
	if interval <= 0 || len(levels) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range levels {
				if l != nil {
					l.Sweep()
				}
			}
		}
	}
}
