package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics for the workshop API.
type Metrics struct {
	// BookingTransitions counts booking status transitions by target status.
	BookingTransitions *prometheus.CounterVec

	// JobTransitions counts job status transitions by target status.
	JobTransitions *prometheus.CounterVec

	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	EstimatesExpired prometheus.Counter

	TransitionDuration prometheus.Histogram
}

func New(namespace string) *Metrics {
	return &Metrics{
		BookingTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions applied",
		}, []string{"to"}),
		JobTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_transitions_total",
			Help:      "Job status transitions applied",
		}, []string{"to"}),
		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications accepted by the dispatcher",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notification dispatch failures (logged, never surfaced)",
		}),
		EstimatesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_expired_total",
			Help:      "Pending estimates expired past their approval deadline",
		}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent applying an entity transition transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
