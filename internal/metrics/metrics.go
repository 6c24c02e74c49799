package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Purchase path
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_purchases_total",
			Help: "Purchase submissions by outcome",
		},
		[]string{"outcome"},
	)

	publishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_publish_failures_total",
			Help: "Purchase events that could not be published after retries",
		},
	)

	publishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketing_publish_duration_seconds",
			Help:    "Time to get a publish acknowledgment, retries included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)

	// Worker path
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_queue_polls_total",
			Help: "Queue polls by outcome",
		},
		[]string{"outcome"},
	)

	notificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_notifications_sent_total",
			Help: "Confirmation emails handed to the mail transport",
		},
	)

	notificationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_notification_failures_total",
			Help: "Confirmation email failures",
		},
		[]string{"error_type"},
	)

	deadLetteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_dead_lettered_total",
			Help: "Messages moved to the dead-letter destination",
		},
		[]string{"reason"},
	)

	deleteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_delete_failures_total",
			Help: "Queue deletes that failed after a successful send",
		},
	)

	idempotencyHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_idempotency_hits_total",
			Help: "Redelivered purchase events whose confirmation was already sent",
		},
	)

	messageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticketing_message_processing_duration_seconds",
			Help:    "Receive-to-delete processing time for one message",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)
)

func RecordPurchase(outcome string) {
	purchasesTotal.WithLabelValues(outcome).Inc()
}

func RecordPublish(d time.Duration, err error) {
	publishDuration.Observe(d.Seconds())
	if err != nil {
		publishFailuresTotal.Inc()
	}
}

func RecordPoll(outcome string) {
	pollsTotal.WithLabelValues(outcome).Inc()
}

func RecordNotificationSent() {
	notificationsSentTotal.Inc()
}

func RecordNotificationFailed(errorType string) {
	notificationFailuresTotal.WithLabelValues(errorType).Inc()
}

func RecordDeadLettered(reason string) {
	deadLetteredTotal.WithLabelValues(reason).Inc()
}

func RecordDeleteFailure() {
	deleteFailuresTotal.Inc()
}

func RecordIdempotencyHit() {
	idempotencyHitsTotal.Inc()
}

func RecordMessageProcessing(d time.Duration) {
	messageProcessingDuration.Observe(d.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
