package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry-backed instrumentation for the API process. Register once from the
// composition root, scrape via Handler on /metrics.
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digitalhippo",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	CheckoutSessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "digitalhippo",
		Subsystem: "commerce",
		Name:      "checkout_sessions_created_total",
		Help:      "Checkout sessions successfully created.",
	})

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digitalhippo",
			Subsystem: "commerce",
			Name:      "payment_webhook_events_total",
			Help:      "Payment webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)

	OrdersPaid = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "digitalhippo",
		Subsystem: "commerce",
		Name:      "orders_paid_total",
		Help:      "Orders transitioned from pending to paid.",
	})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		RequestDuration,
		CheckoutSessionsCreated,
		WebhookEvents,
		OrdersPaid,
	)
}

// Handler serves the scrape endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Middleware records request duration per route pattern.
func Middleware(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
