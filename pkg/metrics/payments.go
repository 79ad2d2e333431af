package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygw",
			Subsystem: "payments",
			Name:      "total",
			Help:      "Payment attempts by outcome code",
		},
		[]string{"outcome"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paygw",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Upstream Square API call latency in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)

	IdempotencyHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygw",
			Subsystem: "idempotency",
			Name:      "checks_total",
			Help:      "Idempotency guard outcomes",
		},
		[]string{"result"}, // new, duplicate, mismatch, store_error
	)
)

func init() {
	Registry.MustRegister(PaymentsTotal, UpstreamRequestDuration, IdempotencyHits)
}
