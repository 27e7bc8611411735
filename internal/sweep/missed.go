// Package sweep runs the periodic missed-visit reconciliation: scheduled
// appointments whose start time is past the grace period get marked missed
// so staff can follow up.
package sweep

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is the reconciliation operation the runner drives.
type Sweeper interface {
	MarkOverdueMissed() (int, error)
}

// Runner ticks the missed-visit sweep at a fixed interval.
type Runner struct {
	sweeper  Sweeper
	log      *slog.Logger
	interval time.Duration
}

// NewRunner creates a sweep runner.
func NewRunner(sweeper Sweeper, log *slog.Logger, interval time.Duration) *Runner {
	return &Runner{sweeper: sweeper, log: log, interval: interval}
}

// Start runs the sweep loop until ctx is cancelled. One sweep runs
// immediately so a restart never extends the grace period.
func (r *Runner) Start(ctx context.Context) {
	r.sweep()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Runner) sweep() {
	marked, err := r.sweeper.MarkOverdueMissed()
	if err != nil {
		r.log.Error("missed-visit sweep failed", "error", err)
		return
	}
	if marked > 0 {
		r.log.Info("missed-visit sweep marked appointments", "count", marked)
	}
}
