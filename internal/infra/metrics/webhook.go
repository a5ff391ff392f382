package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		WebhookDeliveries,
		WebhookDuration,
	)
}

var (
	// Terminal outcome per delivery.
	// outcome: verify_failed|dispatched|dispatch_error
	// event_type: the PayPal event type, "unknown" before verification, "other" when unhandled
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "PayPal webhook deliveries by outcome and event type.",
		},
		[]string{"outcome", "event_type"},
	)

	WebhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of webhook verification plus dispatch in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"outcome"},
	)
)

func ObserveWebhook(outcome, eventType string, seconds float64) {
	WebhookDeliveries.WithLabelValues(outcome, eventType).Inc()
	WebhookDuration.WithLabelValues(outcome).Observe(seconds)
}
