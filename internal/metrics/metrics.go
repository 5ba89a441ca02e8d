package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "millorders",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "millorders",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	orderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "millorders",
			Name:      "order_transitions_total",
			Help:      "Order status transitions by action and result.",
		},
		[]string{"action", "result"},
	)

	overdueMarked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "millorders",
			Name:      "orders_marked_overdue_total",
			Help:      "Orders moved to the overdue payment status by the sweep.",
		},
	)
)

// RecordTransition counts one attempted status transition
func RecordTransition(action string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	orderTransitions.WithLabelValues(action, result).Inc()
}

// RecordOverdue counts orders marked overdue in one sweep
func RecordOverdue(n int) {
	overdueMarked.Add(float64(n))
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
