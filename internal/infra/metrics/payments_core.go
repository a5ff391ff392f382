package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentLinksTotal,
		capturesTotal,
		recordSavesTotal,
		paymentsRevenueTotal,
		notificationsTotal,
	)
}

var (
	paymentLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_links_total",
			Help: "Checkout link creations by result (ok|link_missing|provider_error).",
		},
		[]string{"result"},
	)

	capturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_captures_total",
			Help: "Webhook-triggered order captures by result (ok|error).",
		},
		[]string{"result"},
	)

	recordSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_record_saves_total",
			Help: "Payment record writes by result (ok|error).",
		},
		[]string{"result"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of recorded captures, labeled by currency.",
		},
		[]string{"currency"},
	)

	// kind: recorded|record_failed; status: sent|error|dropped
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "operator_notifications_total",
			Help: "Operator notifications by kind and delivery status.",
		},
		[]string{"kind", "status"},
	)
)

func IncPaymentLink(result string) {
	paymentLinksTotal.WithLabelValues(norm(result)).Inc()
}

func IncCapture(result string) {
	capturesTotal.WithLabelValues(norm(result)).Inc()
}

func IncRecordSave(result string) {
	recordSavesTotal.WithLabelValues(norm(result)).Inc()
}

func AddPaymentRevenue(currency string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(amount)
}

func IncNotification(kind, status string) {
	notificationsTotal.WithLabelValues(kind, status).Inc()
}
