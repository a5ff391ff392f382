package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(providerRequestDuration, providerBreakerState)
}

var (
	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paypal_requests_duration_seconds",
			Help:    "PayPal REST call latency by operation and success.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op", "success"},
	)

	providerBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "paypal_breaker_state",
			Help: "Circuit breaker state per breaker: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"name"},
	)
)

func ObserveProviderCall(op string, success bool, seconds float64) {
	providerRequestDuration.WithLabelValues(norm(op), strconv.FormatBool(success)).Observe(seconds)
}

func SetBreakerState(name string, state int) {
	providerBreakerState.WithLabelValues(name).Set(float64(state))
}
