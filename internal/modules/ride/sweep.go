// README: Due scheduled-ride sweeping; reuses the online assignment step.
package ride

import (
	"context"
	"time"

	"glide/internal/observability"
)

// ProcessDueScheduledRides assigns drivers to every scheduled ride whose time
// has come. Rides are processed independently: a failed assignment is logged
// and the sweep moves on. Re-invocation is safe because assignment only acts
// on rides still in requested.
func (s *Service) ProcessDueScheduledRides(ctx context.Context) (int, error) {
	due, err := s.store.FindDueScheduled(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, r := range due {
		if err := s.assignNearest(ctx, r); err != nil {
			s.log.Warn("scheduled ride assignment failed", "ride_id", r.ID, "error", err)
		}
		processed++
	}
	observability.SweepRunsTotal.Inc()
	return processed, nil
}

// RunSweeper processes due scheduled rides on a fixed interval until the
// context is cancelled.
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.dispatch.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ProcessDueScheduledRides(ctx)
			if err != nil {
				s.log.Error("sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.log.Info("processed due scheduled rides", "count", n)
			}
		}
	}
}
