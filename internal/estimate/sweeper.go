package estimate

import (
	"context"
	"time"

	"workshop/internal/notify"
	"workshop/pkg/logger"
	"workshop/pkg/metrics"
)

// Sweeper periodically expires overdue pending estimates and escalates
// each one to its service advisor. Lazy expiry in the decision handlers
// covers the request path; the sweep covers estimates nobody touches.
type Sweeper struct {
	Estimates *Repository
	Notifier  *notify.Dispatcher
	Log       logger.Logger
	Metrics   *metrics.Metrics
	Interval  time.Duration
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	refs, err := s.Estimates.SweepExpired(ctx, time.Now())
	if err != nil {
		s.Log.Error("estimate sweep failed", "err", err)
		return
	}
	for _, ref := range refs {
		escalateExpiry(s.Notifier, s.Metrics, s.Log, ref)
	}
}

// escalateExpiry records one expiry and notifies the service advisor.
// The caller must have claimed the estimate first, stamping
// escalated_at in the same transaction that expired it; the claim is
// what keeps the advisor from being notified twice when lazy expiry
// and the sweep race for the same row.
func escalateExpiry(d *notify.Dispatcher, m *metrics.Metrics, log logger.Logger, ref ExpiredRef) bool {
	if m != nil {
		m.EstimatesExpired.Inc()
	}
	if log != nil {
		log.Info("estimate expired", "estimate", ref.EstimateNumber, "booking", ref.BookingID)
	}
	return d.DispatchAsync(notify.Notification{
		RecipientID: ref.AdvisorID,
		Template:    "estimate_expired",
		Payload: map[string]any{
			"estimateNumber": ref.EstimateNumber,
			"bookingId":      ref.BookingID,
		},
	})
}
