package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of order creation end to end, gateway call excluded
	OrderCreateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_create_latency_seconds",
		Help:    "Latency of order creation",
		Buckets: prometheus.DefBuckets,
	})

	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of owner-initiated order cancellations",
	})

	PaymentSessionsInitiated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_sessions_initiated_total",
		Help: "Total number of gateway payment sessions requested",
	})

	// Callback deliveries by outcome, replays included
	PaymentCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Payment gateway callbacks received",
	}, []string{"outcome"})

	EmailSendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "email_send_failures_total",
		Help: "Best-effort notification emails that failed to send",
	})
)

func Init() {
	prometheus.MustRegister(
		OrderCreateLatency,
		OrdersCreated,
		OrdersCancelled,
		PaymentSessionsInitiated,
		PaymentCallbacks,
		EmailSendFailures,
	)
}
